// Package config loads dialtone's configuration from the environment,
// with optional .env support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultPort          = "8080"
	DefaultLogLevel      = "info"
	DefaultSTTProvider   = "deepgram"
	DefaultSTTModel      = "general"
	DefaultSTTLanguage   = "en"
	DefaultChatProvider  = "groq"
	DefaultChatModel     = "mixtral-8x7b-32768"
	DefaultTTSProvider   = "cartesia"
	DefaultTTSVoice      = "sonic-english"
	DefaultArtifactDir   = "./artifacts"
	DefaultSystemPrompt  = "You are a helpful voice AI assistant."
	DefaultGreeting      = "Hello! I am your AI assistant. How can I help you today?"
	DefaultRecordSeconds = 12
	DefaultRecordPause   = 2
)

// Config holds the full runtime configuration. Loaded once at startup.
type Config struct {
	// Server
	Port          string
	LogLevel      string
	PublicBaseURL string

	// Telephony
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Speech to text
	STTProvider    string
	DeepgramAPIKey string
	STTModel       string
	STTLanguage    string

	// Dialogue
	ChatProvider string
	ChatModel    string
	GroqAPIKey   string
	OpenAIAPIKey string
	SystemPrompt string

	// Speech synthesis
	TTSProvider      string
	CartesiaAPIKey   string
	ElevenLabsAPIKey string
	TTSVoice         string

	// Conversation shape
	Greeting      string
	RecordSeconds int
	RecordPause   int

	// Artifact store
	ArtifactDir      string
	ArtifactTTL      time.Duration
	ArtifactMaxCount int
	ArtifactSweep    time.Duration

	// Per-stage timeouts
	FetchTimeout time.Duration
	STTTimeout   time.Duration
	ChatTimeout  time.Duration
	TTSTimeout   time.Duration

	// Turn events (optional)
	AMQPURL   string
	AMQPQueue string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first if present, matching local
// development workflows. Missing required values are reported together.
func Load() (*Config, error) {
	// Not an error: production deployments set real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", DefaultPort),
		LogLevel:      getEnv("LOG_LEVEL", DefaultLogLevel),
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		STTProvider:    getEnv("STT_PROVIDER", DefaultSTTProvider),
		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		STTModel:       getEnv("STT_MODEL", DefaultSTTModel),
		STTLanguage:    getEnv("STT_LANGUAGE", DefaultSTTLanguage),

		ChatProvider: getEnv("CHAT_PROVIDER", DefaultChatProvider),
		ChatModel:    getEnv("CHAT_MODEL", DefaultChatModel),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		SystemPrompt: getEnv("SYSTEM_PROMPT", DefaultSystemPrompt),

		TTSProvider:      getEnv("TTS_PROVIDER", DefaultTTSProvider),
		CartesiaAPIKey:   os.Getenv("CARTESIA_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		TTSVoice:         getEnv("TTS_VOICE", DefaultTTSVoice),

		Greeting:      getEnv("GREETING", DefaultGreeting),
		RecordSeconds: getEnvInt("RECORD_SECONDS", DefaultRecordSeconds),
		RecordPause:   getEnvInt("RECORD_PAUSE", DefaultRecordPause),

		ArtifactDir:      getEnv("ARTIFACT_DIR", DefaultArtifactDir),
		ArtifactTTL:      getEnvDuration("ARTIFACT_TTL", 15*time.Minute),
		ArtifactMaxCount: getEnvInt("ARTIFACT_MAX_COUNT", 1000),
		ArtifactSweep:    getEnvDuration("ARTIFACT_SWEEP", time.Minute),

		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		STTTimeout:   getEnvDuration("STT_TIMEOUT", 15*time.Second),
		ChatTimeout:  getEnvDuration("CHAT_TIMEOUT", 15*time.Second),
		TTSTimeout:   getEnvDuration("TTS_TIMEOUT", 20*time.Second),

		AMQPURL:   os.Getenv("AMQP_URL"),
		AMQPQueue: getEnv("AMQP_QUEUE", "dialtone_turns"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value the selected providers require is set.
func (c *Config) Validate() error {
	var missing []string

	if c.TwilioAccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.TwilioAuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.TwilioFromNumber == "" {
		missing = append(missing, "TWILIO_FROM_NUMBER")
	}
	if c.PublicBaseURL == "" {
		missing = append(missing, "PUBLIC_BASE_URL")
	}

	switch c.STTProvider {
	case "deepgram":
		if c.DeepgramAPIKey == "" {
			missing = append(missing, "DEEPGRAM_API_KEY")
		}
	case "whisper":
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown STT_PROVIDER %q", c.STTProvider)
	}

	switch c.ChatProvider {
	case "groq":
		if c.GroqAPIKey == "" {
			missing = append(missing, "GROQ_API_KEY")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown CHAT_PROVIDER %q", c.ChatProvider)
	}

	switch c.TTSProvider {
	case "cartesia":
		if c.CartesiaAPIKey == "" {
			missing = append(missing, "CARTESIA_API_KEY")
		}
	case "elevenlabs":
		if c.ElevenLabsAPIKey == "" {
			missing = append(missing, "ELEVENLABS_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown TTS_PROVIDER %q", c.TTSProvider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %v", missing)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
