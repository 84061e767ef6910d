// dialtone: voice AI phone agent
// Answers Twilio calls and holds a conversation: recorded speech is
// transcribed, answered by an LLM, synthesized back to audio, and
// played into the call, turn after turn until the caller hangs up.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veldtlabs/dialtone/internal/config"
	"github.com/veldtlabs/dialtone/internal/events"
	"github.com/veldtlabs/dialtone/internal/log"
	"github.com/veldtlabs/dialtone/internal/metrics"
	"github.com/veldtlabs/dialtone/pkg/agent"
	"github.com/veldtlabs/dialtone/pkg/artifact"
	"github.com/veldtlabs/dialtone/pkg/dialogue"
	"github.com/veldtlabs/dialtone/pkg/stt"
	"github.com/veldtlabs/dialtone/pkg/telephony"
	"github.com/veldtlabs/dialtone/pkg/tts"
	"github.com/veldtlabs/dialtone/pkg/web"
)

var version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()
	metrics.Init()

	fmt.Println("📞 dialtone v" + version)

	phone, err := telephony.NewTwilio(
		telephony.WithCredentials(cfg.TwilioAccountSID, cfg.TwilioAuthToken),
		telephony.WithFromNumber(cfg.TwilioFromNumber),
		telephony.WithVoiceURL(cfg.PublicBaseURL+"/voice"),
		telephony.WithLogger(log.Component("telephony")),
	)
	if err != nil {
		logger.Error("telephony init failed", "error", err)
		os.Exit(1)
	}

	transcriber, err := buildSTT(cfg)
	if err != nil {
		logger.Error("stt init failed", "provider", cfg.STTProvider, "error", err)
		os.Exit(1)
	}

	chat, err := buildDialogue(cfg)
	if err != nil {
		logger.Error("dialogue init failed", "provider", cfg.ChatProvider, "error", err)
		os.Exit(1)
	}

	synth, err := buildTTS(cfg)
	if err != nil {
		logger.Error("tts init failed", "provider", cfg.TTSProvider, "error", err)
		os.Exit(1)
	}

	store, err := artifact.New(cfg.ArtifactDir, cfg.PublicBaseURL,
		artifact.WithTTL(cfg.ArtifactTTL),
		artifact.WithMaxCount(cfg.ArtifactMaxCount),
		artifact.WithSweepInterval(cfg.ArtifactSweep),
		artifact.WithLogger(log.Component("artifact")),
	)
	if err != nil {
		logger.Error("artifact store init failed", "dir", cfg.ArtifactDir, "error", err)
		os.Exit(1)
	}
	store.StartJanitor()

	publisher := buildPublisher(cfg)

	ag := agent.New(agent.Deps{
		Recordings: phone,
		STT:        transcriber,
		Dialogue:   chat,
		TTS:        synth,
		Artifacts:  store,
		Events:     publisher,
		Logger:     log.L(),
	}, agent.Config{
		Greeting:        cfg.Greeting,
		RecordMaxLength: cfg.RecordSeconds,
		RecordTimeout:   cfg.RecordPause,
		RecordPlayBeep:  true,
		FetchTimeout:    cfg.FetchTimeout,
		STTTimeout:      cfg.STTTimeout,
		ChatTimeout:     cfg.ChatTimeout,
		TTSTimeout:      cfg.TTSTimeout,
	})

	server, err := web.New(web.Deps{
		Agent:     ag,
		Dialer:    phone,
		Artifacts: store,
		Logger:    log.Component("web"),
		Verbose:   cfg.LogLevel == "debug",
	})
	if err != nil {
		logger.Error("server init failed", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("listening",
			"port", cfg.Port,
			"public_url", cfg.PublicBaseURL,
			"stt", cfg.STTProvider,
			"chat", cfg.ChatProvider,
			"tts", cfg.TTSProvider,
		)
		if err := server.Listen(":" + cfg.Port); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n👋 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	store.Close()
	publisher.Close()
	phone.Close()
	transcriber.Close()
	chat.Close()
	synth.Close()

	logger.Info("stopped")
}

// buildSTT constructs the transcription provider named in config. The
// model passes through only when it applies: the Deepgram default would
// misconfigure Whisper, which names its own model.
func buildSTT(cfg *config.Config) (stt.Provider, error) {
	key := cfg.DeepgramAPIKey
	if cfg.STTProvider == "whisper" {
		key = cfg.OpenAIAPIKey
	}

	opts := []stt.Option{
		stt.WithAPIKey(key),
		stt.WithLanguage(cfg.STTLanguage),
		stt.WithTimeout(cfg.STTTimeout),
		stt.WithLogger(log.Component("stt")),
	}
	if cfg.STTProvider == "deepgram" || cfg.STTModel != config.DefaultSTTModel {
		opts = append(opts, stt.WithModel(cfg.STTModel))
	}
	return stt.New(cfg.STTProvider, opts...)
}

// buildDialogue constructs the chat provider named in config.
func buildDialogue(cfg *config.Config) (dialogue.Provider, error) {
	key := cfg.GroqAPIKey
	model := cfg.ChatModel
	if cfg.ChatProvider == "openai" {
		key = cfg.OpenAIAPIKey
		if model == config.DefaultChatModel {
			model = "gpt-4o-mini"
		}
	}

	return dialogue.New(cfg.ChatProvider,
		dialogue.WithAPIKey(key),
		dialogue.WithModel(model),
		dialogue.WithSystemPrompt(cfg.SystemPrompt),
		dialogue.WithTimeout(cfg.ChatTimeout),
		dialogue.WithLogger(log.Component("dialogue")),
	)
}

// buildTTS constructs the synthesis provider named in config. The voice
// passes through only when it applies, for the same reason as buildSTT.
func buildTTS(cfg *config.Config) (tts.Provider, error) {
	key := cfg.CartesiaAPIKey
	if cfg.TTSProvider == "elevenlabs" {
		key = cfg.ElevenLabsAPIKey
	}

	opts := []tts.Option{
		tts.WithAPIKey(key),
		tts.WithTimeout(cfg.TTSTimeout),
		tts.WithLogger(log.Component("tts")),
	}
	if cfg.TTSProvider == "cartesia" || cfg.TTSVoice != config.DefaultTTSVoice {
		opts = append(opts, tts.WithVoice(cfg.TTSVoice))
	}
	return tts.New(cfg.TTSProvider, opts...)
}

// buildPublisher connects the AMQP turn-event publisher when a broker
// is configured. A broker outage downgrades to the nop publisher so the
// agent still answers calls.
func buildPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Nop{}
	}

	pub, err := events.NewAMQP(cfg.AMQPURL, cfg.AMQPQueue, log.Component("events"))
	if err != nil {
		log.Warn("amqp unavailable, turn events disabled", "error", err)
		return events.Nop{}
	}
	return pub
}
