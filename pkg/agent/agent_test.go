package agent_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/veldtlabs/dialtone/internal/events"
	"github.com/veldtlabs/dialtone/pkg/agent"
	"github.com/veldtlabs/dialtone/pkg/artifact"
	"github.com/veldtlabs/dialtone/pkg/dialogue"
	"github.com/veldtlabs/dialtone/pkg/stt"
	"github.com/veldtlabs/dialtone/pkg/telephony"
	"github.com/veldtlabs/dialtone/pkg/tts"
	"github.com/veldtlabs/dialtone/pkg/twiml"
)

// fixture wires an agent to mocks for every dependency and a real
// artifact store over a temp directory.
type fixture struct {
	fetcher *telephony.MockFetcher
	stt     *stt.Mock
	chat    *dialogue.Mock
	synth   *tts.Mock
	store   *artifact.Store
	dir     string
	events  *events.Mock
	agent   *agent.Agent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	store, err := artifact.New(dir, "http://localhost:3000")
	if err != nil {
		t.Fatalf("artifact.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		fetcher: &telephony.MockFetcher{},
		stt:     stt.NewMock(),
		chat:    dialogue.NewMock(),
		synth:   tts.NewMock(),
		store:   store,
		dir:     dir,
		events:  &events.Mock{},
	}
	f.agent = agent.New(agent.Deps{
		Recordings: f.fetcher,
		STT:        f.stt,
		Dialogue:   f.chat,
		TTS:        f.synth,
		Artifacts:  f.store,
		Events:     f.events,
	}, agent.DefaultConfig())
	return f
}

// failingStore always rejects Put.
type failingStore struct{ err error }

func (f *failingStore) Put([]byte, tts.AudioFormat, string) (*artifact.Artifact, error) {
	return nil, f.err
}

func directiveKinds(in *twiml.Instruction) []string {
	var kinds []string
	for _, d := range in.Directives() {
		switch d.(type) {
		case twiml.Say:
			kinds = append(kinds, "say")
		case twiml.Play:
			kinds = append(kinds, "play")
		case twiml.Record:
			kinds = append(kinds, "record")
		case twiml.Redirect:
			kinds = append(kinds, "redirect")
		}
	}
	return kinds
}

func wantKinds(t *testing.T, in *twiml.Instruction, want ...string) {
	t.Helper()
	got := directiveKinds(in)
	if len(got) != len(want) {
		t.Fatalf("directives = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("directives = %v, want %v", got, want)
		}
	}
}

func lastOutcome(t *testing.T, m *events.Mock) events.TurnEvent {
	t.Helper()
	evs := m.Events()
	if len(evs) == 0 {
		t.Fatal("no turn event published")
	}
	return evs[len(evs)-1]
}

func TestGreet(t *testing.T) {
	f := newFixture(t)

	in := f.agent.Greet()
	wantKinds(t, in, "say", "record")

	say := in.Directives()[0].(twiml.Say)
	if !strings.Contains(say.Text, "AI assistant") {
		t.Errorf("greeting = %q", say.Text)
	}
	rec := in.Directives()[1].(twiml.Record)
	if rec.Action != "/process" || rec.MaxLength != 12 || rec.Timeout != 2 || !rec.PlayBeep {
		t.Errorf("record = %+v", rec)
	}
}

func TestTurnSuccess(t *testing.T) {
	f := newFixture(t)
	f.stt.TranscribeFunc = func(context.Context, []byte) (*stt.Result, error) {
		return &stt.Result{Text: "what time is it"}, nil
	}
	f.chat.ReplyFunc = func(context.Context, string) (*dialogue.Reply, error) {
		return &dialogue.Reply{Text: "It's three PM."}, nil
	}

	in := f.agent.Turn(context.Background(), agent.Event{
		CallSID:      "CA1234",
		RecordingURL: "https://api.twilio.com/recordings/RE99",
	})

	wantKinds(t, in, "play", "record")
	play := in.Directives()[0].(twiml.Play)
	if !strings.HasPrefix(play.URL, "http://localhost:3000/audio/CA1234-") {
		t.Errorf("play URL = %q", play.URL)
	}

	if got := f.fetcher.Fetched(); len(got) != 1 || got[0] != "https://api.twilio.com/recordings/RE99" {
		t.Errorf("fetched = %v", got)
	}
	if f.chat.LastTranscript() != "what time is it" {
		t.Errorf("transcript passed to dialogue = %q", f.chat.LastTranscript())
	}
	if f.synth.LastText() != "It's three PM." {
		t.Errorf("text passed to synthesis = %q", f.synth.LastText())
	}

	ev := lastOutcome(t, f.events)
	if ev.Outcome != agent.OutcomeOK || ev.CallSID != "CA1234" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Transcript != "what time is it" || ev.Reply != "It's three PM." {
		t.Errorf("event = %+v", ev)
	}
}

func TestTurnMissingRecording(t *testing.T) {
	f := newFixture(t)

	in := f.agent.Turn(context.Background(), agent.Event{CallSID: "CA1"})

	wantKinds(t, in, "redirect")
	redir := in.Directives()[0].(twiml.Redirect)
	if redir.URL != "/voice" {
		t.Errorf("redirect URL = %q", redir.URL)
	}

	if f.fetcher.FetchCount() != 0 {
		t.Error("fetcher invoked for event without recording")
	}
	if f.stt.CallCount("Transcribe") != 0 {
		t.Error("transcriber invoked for event without recording")
	}
	if f.chat.CallCount("Reply") != 0 {
		t.Error("dialogue invoked for event without recording")
	}
	if f.synth.CallCount("Synthesize") != 0 {
		t.Error("synthesizer invoked for event without recording")
	}

	if ev := lastOutcome(t, f.events); ev.Outcome != agent.OutcomeMissingRecording {
		t.Errorf("outcome = %q", ev.Outcome)
	}
}

func TestTurnFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.fetcher.FetchFunc = func(context.Context, string) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}

	in := f.agent.Turn(context.Background(), agent.Event{
		CallSID:      "CA2",
		RecordingURL: "https://api.twilio.com/recordings/RE1",
	})

	// Terminal: an apology and nothing else, so a broken media path
	// cannot loop.
	wantKinds(t, in, "say")
	say := in.Directives()[0].(twiml.Say)
	if !strings.Contains(say.Text, "connection") {
		t.Errorf("apology = %q", say.Text)
	}

	if f.stt.CallCount("Transcribe") != 0 {
		t.Error("transcriber invoked after fetch failure")
	}
	if ev := lastOutcome(t, f.events); ev.Outcome != agent.OutcomeFetchFailed {
		t.Errorf("outcome = %q", ev.Outcome)
	}
}

func TestTurnEmptyTranscript(t *testing.T) {
	f := newFixture(t)
	f.stt.TranscribeFunc = func(context.Context, []byte) (*stt.Result, error) {
		return &stt.Result{Text: ""}, nil
	}

	in := f.agent.Turn(context.Background(), agent.Event{
		CallSID:      "CA3",
		RecordingURL: "https://api.twilio.com/recordings/RE2",
	})

	wantKinds(t, in, "say", "record")
	say := in.Directives()[0].(twiml.Say)
	if !strings.Contains(say.Text, "catch that") {
		t.Errorf("retry prompt = %q", say.Text)
	}

	if f.chat.CallCount("Reply") != 0 {
		t.Error("dialogue invoked on empty transcript")
	}
	if f.synth.CallCount("Synthesize") != 0 {
		t.Error("synthesizer invoked on empty transcript")
	}
	if ev := lastOutcome(t, f.events); ev.Outcome != agent.OutcomeEmptyTranscript {
		t.Errorf("outcome = %q", ev.Outcome)
	}
}

func TestTurnSTTFailureReadsAsSilence(t *testing.T) {
	f := newFixture(t)
	f.stt.TranscribeFunc = func(context.Context, []byte) (*stt.Result, error) {
		return nil, errors.New("deepgram unreachable")
	}

	in := f.agent.Turn(context.Background(), agent.Event{
		CallSID:      "CA4",
		RecordingURL: "https://api.twilio.com/recordings/RE3",
	})

	wantKinds(t, in, "say", "record")
	if f.chat.CallCount("Reply") != 0 {
		t.Error("dialogue invoked after transcription failure")
	}
	if ev := lastOutcome(t, f.events); ev.Outcome != agent.OutcomeEmptyTranscript {
		t.Errorf("outcome = %q", ev.Outcome)
	}
}

func TestTurnDegradedReply(t *testing.T) {
	f := newFixture(t)
	f.chat.ReplyFunc = func(context.Context, string) (*dialogue.Reply, error) {
		return nil, errors.New("model overloaded")
	}

	in := f.agent.Turn(context.Background(), agent.Event{
		CallSID:      "CA5",
		RecordingURL: "https://api.twilio.com/recordings/RE4",
	})

	// Synthesis still runs, speaking the degraded line.
	if f.synth.CallCount("Synthesize") != 1 {
		t.Fatalf("Synthesize calls = %d, want 1", f.synth.CallCount("Synthesize"))
	}
	if f.synth.LastText() != "I am having trouble thinking right now." {
		t.Errorf("synthesized text = %q", f.synth.LastText())
	}

	wantKinds(t, in, "play", "record")
	ev := lastOutcome(t, f.events)
	if ev.Outcome != agent.OutcomeDegradedReply {
		t.Errorf("outcome = %q", ev.Outcome)
	}
	if ev.Reply != "I am having trouble thinking right now." {
		t.Errorf("event reply = %q", ev.Reply)
	}
}

func TestTurnSynthesisFailure(t *testing.T) {
	f := newFixture(t)
	f.synth.SynthesizeFunc = func(context.Context, string) (*tts.AudioResult, error) {
		return nil, &tts.APIError{StatusCode: 500, Message: "synth down", Provider: "cartesia"}
	}

	in := f.agent.Turn(context.Background(), agent.Event{
		CallSID:      "CA6",
		RecordingURL: "https://api.twilio.com/recordings/RE5",
	})

	// The reply is spoken by the provider's voice instead of played.
	wantKinds(t, in, "say", "record")
	say := in.Directives()[0].(twiml.Say)
	if say.Text != "I can help with that." {
		t.Errorf("spoken reply = %q", say.Text)
	}

	// No artifact was stored.
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		t.Fatalf("read store dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("store holds %d artifacts, want 0", len(entries))
	}

	if ev := lastOutcome(t, f.events); ev.Outcome != agent.OutcomeSpokenReply {
		t.Errorf("outcome = %q", ev.Outcome)
	}
}

func TestTurnStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.agent = agent.New(agent.Deps{
		Recordings: f.fetcher,
		STT:        f.stt,
		Dialogue:   f.chat,
		TTS:        f.synth,
		Artifacts:  &failingStore{err: errors.New("disk full")},
		Events:     f.events,
	}, agent.DefaultConfig())

	in := f.agent.Turn(context.Background(), agent.Event{
		CallSID:      "CA7",
		RecordingURL: "https://api.twilio.com/recordings/RE6",
	})

	wantKinds(t, in, "say", "record")
	if ev := lastOutcome(t, f.events); ev.Outcome != agent.OutcomeSpokenReply {
		t.Errorf("outcome = %q", ev.Outcome)
	}
}

func TestTurnDegradedReplyWinsOverSynthesisFailure(t *testing.T) {
	f := newFixture(t)
	f.chat.ReplyFunc = func(context.Context, string) (*dialogue.Reply, error) {
		return nil, errors.New("model down")
	}
	f.synth.SynthesizeFunc = func(context.Context, string) (*tts.AudioResult, error) {
		return nil, errors.New("synth down")
	}

	in := f.agent.Turn(context.Background(), agent.Event{
		CallSID:      "CA8",
		RecordingURL: "https://api.twilio.com/recordings/RE7",
	})

	// The caller hears exactly one fallback: the degraded line, spoken.
	wantKinds(t, in, "say", "record")
	say := in.Directives()[0].(twiml.Say)
	if say.Text != "I am having trouble thinking right now." {
		t.Errorf("spoken text = %q", say.Text)
	}
	if ev := lastOutcome(t, f.events); ev.Outcome != agent.OutcomeDegradedReply {
		t.Errorf("outcome = %q", ev.Outcome)
	}
}

func TestTurnArtifactURLsNeverCollide(t *testing.T) {
	f := newFixture(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		in := f.agent.Turn(context.Background(), agent.Event{
			CallSID:      "CAsame",
			RecordingURL: "https://api.twilio.com/recordings/RE8",
		})
		wantKinds(t, in, "play", "record")
		url := in.Directives()[0].(twiml.Play).URL
		if seen[url] {
			t.Fatalf("artifact URL %q repeated", url)
		}
		seen[url] = true
	}
}

func TestFallback(t *testing.T) {
	f := newFixture(t)

	in := f.agent.Fallback()
	wantKinds(t, in, "say", "redirect")

	redir := in.Directives()[1].(twiml.Redirect)
	if redir.URL != "/voice" {
		t.Errorf("redirect URL = %q", redir.URL)
	}
}
