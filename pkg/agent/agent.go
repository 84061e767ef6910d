// Package agent orchestrates one conversation turn: fetch the caller's
// recorded utterance, transcribe it, generate a reply, synthesize the
// reply to audio, and hand back the telephony instruction that plays it
// and records the next utterance.
//
// The agent holds no state between turns. Each webhook event is a
// complete unit of work; the telephony provider serializes a call's
// turns by construction, so concurrent calls never share anything but
// the artifact directory.
//
// Stage failures degrade instead of aborting wherever the conversation
// can continue: a failed transcription reads as silence, a failed reply
// becomes a fixed degraded line, failed synthesis falls back to the
// provider's built-in voice. Only a failed recording fetch ends the
// call, because retrying a broken media path would loop forever. No
// stage is ever retried within a turn; the next utterance is the retry.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/veldtlabs/dialtone/internal/events"
	"github.com/veldtlabs/dialtone/internal/metrics"
	"github.com/veldtlabs/dialtone/pkg/artifact"
	"github.com/veldtlabs/dialtone/pkg/dialogue"
	"github.com/veldtlabs/dialtone/pkg/stt"
	"github.com/veldtlabs/dialtone/pkg/telephony"
	"github.com/veldtlabs/dialtone/pkg/tts"
	"github.com/veldtlabs/dialtone/pkg/twiml"
)

// Pipeline stage names as they appear in logs and metrics.
const (
	stageFetch = "fetch"
	stageSTT   = "stt"
	stageChat  = "chat"
	stageTTS   = "tts"
	stageStore = "store"
)

// Turn outcomes as they appear in metrics and published events.
const (
	OutcomeOK               = "ok"
	OutcomeMissingRecording = "missing_recording"
	OutcomeFetchFailed      = "fetch_failed"
	OutcomeEmptyTranscript  = "empty_transcript"
	OutcomeDegradedReply    = "degraded_reply"
	OutcomeSpokenReply      = "spoken_reply"
)

// publishTimeout bounds the post-turn event publish, which runs on a
// detached context so a hung-up caller still produces an event.
const publishTimeout = 3 * time.Second

// Event is one recording-ready webhook, reduced to what the turn needs.
type Event struct {
	// CallSID identifies the call.
	CallSID string

	// RecordingURL points at the caller's recorded utterance. Empty
	// means the caller said nothing worth recording.
	RecordingURL string
}

// Storer persists synthesized audio for the telephony provider to
// fetch. Satisfied by *artifact.Store.
type Storer interface {
	Put(audio []byte, format tts.AudioFormat, callRef string) (*artifact.Artifact, error)
}

// Deps are the external capabilities one turn runs through.
type Deps struct {
	Recordings telephony.RecordingFetcher
	STT        stt.Provider
	Dialogue   dialogue.Provider
	TTS        tts.Provider
	Artifacts  Storer
	Events     events.Publisher
	Logger     *slog.Logger
}

// Agent turns webhook events into telephony instructions.
type Agent struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

// New builds an agent. Unset Config fields take their defaults; a nil
// Events publisher becomes a nop.
func New(deps Deps, cfg Config) *Agent {
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		deps:   deps,
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "agent"),
	}
}

// Greet returns the fixed call-answered instruction: speak the greeting
// and record the caller's first utterance. Side-effect free.
func (a *Agent) Greet() *twiml.Instruction {
	return twiml.New().
		Say(a.cfg.Greeting).
		Record(a.record())
}

// Fallback returns the safe instruction the HTTP layer responds with
// when a turn faults outside the pipeline's own degradation paths:
// apologize and start the turn over.
func (a *Agent) Fallback() *twiml.Instruction {
	return twiml.New().
		Say(a.cfg.Apology).
		Redirect(a.cfg.VoiceURL)
}

// Turn runs the pipeline for one recorded utterance and returns the
// instruction for the telephony provider. It never returns an error:
// every failure maps to an instruction the caller can hear.
func (a *Agent) Turn(ctx context.Context, ev Event) *twiml.Instruction {
	start := time.Now()
	logger := a.logger.With("call_sid", ev.CallSID)

	// No recording reference means the caller was silent. Start the
	// turn over without touching any backend.
	if ev.RecordingURL == "" {
		logger.Info("no recording in event, redirecting to greet")
		a.finish(logger, ev, "", "", OutcomeMissingRecording, start)
		return twiml.New().Redirect(a.cfg.VoiceURL)
	}

	audio, err := a.fetch(ctx, ev.RecordingURL)
	if err != nil {
		logger.Error("recording fetch failed", "error", err, "url", ev.RecordingURL)
		a.finish(logger, ev, "", "", OutcomeFetchFailed, start)
		// Terminal: no record directive, or a broken media path would
		// loop the caller through this apology forever.
		return twiml.New().Say(a.cfg.ConnectionApology)
	}

	transcript := a.transcribe(ctx, logger, audio)
	if transcript == "" {
		logger.Info("empty transcript, asking caller to repeat")
		a.finish(logger, ev, "", "", OutcomeEmptyTranscript, start)
		return twiml.New().
			Say(a.cfg.RetryPrompt).
			Record(a.record())
	}

	reply, degraded := a.think(ctx, logger, transcript)

	outcome := OutcomeOK
	if degraded {
		outcome = OutcomeDegradedReply
	}

	in := twiml.New()
	if art := a.speak(ctx, logger, reply, ev.CallSID); art != nil {
		in.Play(art.URL())
	} else {
		// The provider's built-in voice reads the reply when synthesis
		// or storage failed. A degraded reply keeps its own outcome.
		in.Say(reply)
		if !degraded {
			outcome = OutcomeSpokenReply
		}
	}
	in.Record(a.record())

	a.finish(logger, ev, transcript, reply, outcome, start)
	return in
}

// fetch downloads the caller's recorded audio.
func (a *Agent) fetch(ctx context.Context, recordingURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
	defer cancel()
	defer metrics.ObserveStage(stageFetch)()

	audio, err := a.deps.Recordings.Fetch(ctx, recordingURL)
	if err != nil {
		metrics.RecordStageError(stageFetch, errType(err))
		return nil, err
	}
	return audio, nil
}

// transcribe converts audio to text. Failure reads as silence: the
// caller cannot tell a backend outage from an unintelligible utterance,
// so both come back as the empty transcript.
func (a *Agent) transcribe(ctx context.Context, logger *slog.Logger, audio []byte) string {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.STTTimeout)
	defer cancel()
	defer metrics.ObserveStage(stageSTT)()

	res, err := a.deps.STT.Transcribe(ctx, audio)
	if err != nil {
		metrics.RecordStageError(stageSTT, errType(err))
		logger.Warn("transcription failed, treating as silence", "error", err)
		return ""
	}
	return strings.TrimSpace(res.Text)
}

// think generates the reply. On failure the fixed degraded line stands
// in and the conversation continues; degraded reports which happened.
func (a *Agent) think(ctx context.Context, logger *slog.Logger, transcript string) (reply string, degraded bool) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ChatTimeout)
	defer cancel()
	defer metrics.ObserveStage(stageChat)()

	res, err := a.deps.Dialogue.Reply(ctx, transcript)
	if err != nil {
		metrics.RecordStageError(stageChat, errType(err))
		logger.Warn("dialogue failed, substituting degraded reply", "error", err)
		return a.cfg.DegradedReply, true
	}
	if strings.TrimSpace(res.Text) == "" {
		metrics.RecordStageError(stageChat, "empty_reply")
		logger.Warn("dialogue returned empty reply, substituting degraded reply")
		return a.cfg.DegradedReply, true
	}
	return res.Text, false
}

// speak synthesizes the reply and stores the audio, returning nil when
// either step fails so the caller falls back to spoken text.
func (a *Agent) speak(ctx context.Context, logger *slog.Logger, reply, callSID string) *artifact.Artifact {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.TTSTimeout)
	defer cancel()

	done := metrics.ObserveStage(stageTTS)
	res, err := a.deps.TTS.Synthesize(ctx, reply)
	done()
	if err != nil {
		metrics.RecordStageError(stageTTS, errType(err))
		logger.Warn("synthesis failed, falling back to spoken reply", "error", err)
		return nil
	}
	metrics.RecordSpeech(res.Duration)

	art, err := a.deps.Artifacts.Put(res.Audio, res.Format, callSID)
	if err != nil {
		metrics.RecordStageError(stageStore, errType(err))
		logger.Warn("artifact store failed, falling back to spoken reply", "error", err)
		return nil
	}
	return art
}

// finish records the turn's metrics and publishes its event. The
// publish uses a detached context: the turn's outcome is worth keeping
// even when the caller already hung up.
func (a *Agent) finish(logger *slog.Logger, ev Event, transcript, reply, outcome string, start time.Time) {
	metrics.RecordTurn(outcome)
	logger.Info("turn complete",
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err := a.deps.Events.PublishTurn(ctx, events.TurnEvent{
		CallSID:    ev.CallSID,
		Transcript: transcript,
		Reply:      reply,
		Outcome:    outcome,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("turn event publish failed", "error", err)
	}
}

// record builds the record-next-utterance directive from config.
func (a *Agent) record() twiml.Record {
	return twiml.Record{
		Action:    a.cfg.ProcessURL,
		Method:    "POST",
		MaxLength: a.cfg.RecordMaxLength,
		Timeout:   a.cfg.RecordTimeout,
		PlayBeep:  a.cfg.RecordPlayBeep,
		Trim:      a.cfg.RecordTrim,
	}
}

// errType classifies a stage error for metrics labels.
func errType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	var rejected interface{ IsServerError() bool }
	if errors.As(err, &rejected) {
		return "rejected"
	}
	return "transport"
}
