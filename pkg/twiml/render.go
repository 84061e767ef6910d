package twiml

import (
	"fmt"
	"strconv"

	twimlsdk "github.com/twilio/twilio-go/twiml"
)

// Render produces the TwiML document for the instruction.
func (in *Instruction) Render() (string, error) {
	verbs := make([]twimlsdk.Element, 0, len(in.directives))

	for _, d := range in.directives {
		switch v := d.(type) {
		case Say:
			verbs = append(verbs, twimlsdk.VoiceSay{Message: v.Text})
		case Play:
			verbs = append(verbs, twimlsdk.VoicePlay{Url: v.URL})
		case Record:
			rec := twimlsdk.VoiceRecord{
				Action:   v.Action,
				Method:   v.Method,
				PlayBeep: strconv.FormatBool(v.PlayBeep),
				Trim:     v.Trim,
			}
			if v.MaxLength > 0 {
				rec.MaxLength = strconv.Itoa(v.MaxLength)
			}
			if v.Timeout > 0 {
				rec.Timeout = strconv.Itoa(v.Timeout)
			}
			verbs = append(verbs, rec)
		case Redirect:
			verbs = append(verbs, twimlsdk.VoiceRedirect{
				Url:    v.URL,
				Method: v.Method,
			})
		default:
			return "", fmt.Errorf("twiml: unknown directive %T", d)
		}
	}

	doc, err := twimlsdk.Voice(verbs)
	if err != nil {
		return "", fmt.Errorf("twiml: render: %w", err)
	}
	return doc, nil
}
