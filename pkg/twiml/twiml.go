// Package twiml models the declarative instruction document returned to
// the telephony provider after each webhook. An Instruction is an
// ordered list of directives (Say, Play, Record, Redirect) rendered to
// TwiML. The document is data, not behavior: handlers build it, the
// provider interprets it.
package twiml

// Directive is one step the telephony provider executes in order.
type Directive interface {
	directive()
}

// Say speaks text to the caller using the provider's built-in voice.
type Say struct {
	Text string
}

// Play fetches and plays an audio resource to the caller.
type Play struct {
	URL string
}

// Record captures caller audio and posts the recording reference to
// Action. MaxLength and Timeout are seconds; zero values are omitted
// from the rendered document so provider defaults apply.
type Record struct {
	Action    string
	Method    string
	MaxLength int
	Timeout   int
	PlayBeep  bool
	Trim      string
}

// Redirect transfers control to another webhook URL.
type Redirect struct {
	URL    string
	Method string
}

func (Say) directive()      {}
func (Play) directive()     {}
func (Record) directive()   {}
func (Redirect) directive() {}

// Instruction is an ordered sequence of directives for one response.
type Instruction struct {
	directives []Directive
}

// New returns an empty instruction.
func New() *Instruction {
	return &Instruction{}
}

// Say appends a Say directive.
func (in *Instruction) Say(text string) *Instruction {
	in.directives = append(in.directives, Say{Text: text})
	return in
}

// Play appends a Play directive.
func (in *Instruction) Play(url string) *Instruction {
	in.directives = append(in.directives, Play{URL: url})
	return in
}

// Record appends a Record directive.
func (in *Instruction) Record(r Record) *Instruction {
	in.directives = append(in.directives, r)
	return in
}

// Redirect appends a Redirect directive.
func (in *Instruction) Redirect(url string) *Instruction {
	in.directives = append(in.directives, Redirect{URL: url})
	return in
}

// Directives returns the ordered directive list.
func (in *Instruction) Directives() []Directive {
	return in.directives
}

// Len returns the number of directives.
func (in *Instruction) Len() int {
	return len(in.directives)
}
