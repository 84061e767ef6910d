// Package tts synthesizes the agent's reply text to audio through
// pluggable provider adapters (Cartesia, ElevenLabs). A provider makes
// exactly one timeout-bounded request per Synthesize call and never
// retries; deciding what to do when synthesis fails is the caller's
// job, not the adapter's.
//
// Example usage:
//
//	provider, _ := tts.New("cartesia",
//	    tts.WithAPIKey(os.Getenv("CARTESIA_API_KEY")),
//	    tts.WithVoice("sonic-english"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "It's three PM.")
//	// result.Audio contains MP3 audio bytes
package tts

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider switching.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio
	// buffer. One attempt, bounded by ctx; never retried internally.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the decoded playback duration, zero when it could
	// not be determined.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the request round-trip time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., mp3_44100_128, pcm_24000).
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 44100, 8000).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (e.g., 16 for PCM16).
	BitDepth int
}

// Encoding represents audio encoding types.
// These match ElevenLabs output format options.
type Encoding string

const (
	// PCM formats (raw audio, lowest latency)
	EncodingPCM16 Encoding = "pcm_16000" // 16kHz mono PCM16
	EncodingPCM22 Encoding = "pcm_22050" // 22.05kHz mono PCM16
	EncodingPCM24 Encoding = "pcm_24000" // 24kHz mono PCM16
	EncodingPCM44 Encoding = "pcm_44100" // 44.1kHz mono PCM16

	// Compressed formats
	EncodingMP3  Encoding = "mp3_44100_128" // MP3 128kbps, what the telephony layer plays
	EncodingULaw Encoding = "ulaw_8000"     // μ-law 8kHz (telephony trunk rate)
)

// MIME returns the content type for the encoding.
func (e Encoding) MIME() string {
	switch e {
	case EncodingMP3:
		return "audio/mpeg"
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return "audio/pcm"
	case EncodingULaw:
		return "audio/basic"
	default:
		return "audio/mpeg"
	}
}

// Ext returns the file extension for the encoding, with leading dot.
func (e Encoding) Ext() string {
	switch e {
	case EncodingMP3:
		return ".mp3"
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return ".pcm"
	case EncodingULaw:
		return ".ulaw"
	default:
		return ".mp3"
	}
}

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM24:
		return 24000
	case EncodingPCM44, EncodingMP3:
		return 44100
	case EncodingULaw:
		return 8000
	default:
		return 44100
	}
}

// VoiceSettings controls voice characteristics for providers that support it.
// These settings affect the expressiveness and consistency of the generated speech.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	// Lower values = more expressive/variable, higher = more consistent.
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	// Higher values = closer to original voice sample.
	SimilarityBoost float64

	// Style controls style exaggeration (0.0-1.0).
	// Only supported by ElevenLabs v2 models.
	Style float64

	// SpeakerBoost enhances speaker clarity.
	// Recommended for noisy environments.
	SpeakerBoost bool
}

// DefaultVoiceSettings returns sensible defaults for voice synthesis.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
		SpeakerBoost:    true,
	}
}

// New constructs a provider by name. Known names: "cartesia",
// "elevenlabs".
func New(name string, opts ...Option) (Provider, error) {
	switch name {
	case "cartesia":
		return NewCartesia(opts...)
	case "elevenlabs":
		return NewElevenLabs(opts...)
	default:
		return nil, fmt.Errorf("tts: unknown provider %q: %w", name, ErrUnknownProvider)
	}
}
