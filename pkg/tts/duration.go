package tts

import (
	"bytes"
	"io"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// probeDuration computes the playback duration of synthesized audio.
// MP3 is decoded; PCM and μ-law are computed from the format. Returns
// zero when the duration cannot be determined, never an error: the
// duration feeds metrics and logs, not control flow.
func probeDuration(audio []byte, format AudioFormat) time.Duration {
	switch format.Encoding {
	case EncodingMP3:
		return mp3Duration(audio)
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return pcmDuration(len(audio), format)
	case EncodingULaw:
		// One byte per sample at the trunk rate.
		if format.SampleRate <= 0 {
			return 0
		}
		return time.Duration(float64(len(audio)) / float64(format.SampleRate) * float64(time.Second))
	default:
		return 0
	}
}

// mp3Duration decodes the stream and counts output samples. go-mp3
// always emits 16-bit stereo, four bytes per sample frame.
func mp3Duration(audio []byte) time.Duration {
	dec, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return 0
	}

	n, err := io.Copy(io.Discard, dec)
	if err != nil || n <= 0 {
		return 0
	}

	frames := n / 4
	return time.Duration(float64(frames) / float64(dec.SampleRate()) * float64(time.Second))
}

// pcmDuration computes duration arithmetically from the format.
func pcmDuration(byteLen int, format AudioFormat) time.Duration {
	bytesPerSample := format.BitDepth / 8
	if bytesPerSample <= 0 {
		bytesPerSample = 2
	}
	channels := format.Channels
	if channels <= 0 {
		channels = 1
	}
	if format.SampleRate <= 0 {
		return 0
	}

	frames := byteLen / (bytesPerSample * channels)
	return time.Duration(float64(frames) / float64(format.SampleRate) * float64(time.Second))
}
