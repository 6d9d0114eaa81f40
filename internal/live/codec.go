// Package live runs the bidirectional low-latency voice session: it pumps
// microphone frames up to the service, decodes synthesized audio coming back,
// and schedules playback so consecutive chunks are gapless. An interruption
// from the service stops everything queued and resets the playback clock.
package live

import (
	"encoding/binary"
	"time"
)

// Wire audio formats. Microphone input is mono PCM16 at 16kHz; synthesized
// output arrives as mono PCM16 at 24kHz.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000

	inputMIMEType = "audio/pcm;rate=16000"
)

// EncodePCM16 converts normalized float32 samples to little-endian PCM16
// bytes. Samples outside [-1, 1] are clamped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int32(s * 32768)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// DecodePCM16 converts little-endian PCM16 bytes to normalized float32
// samples. A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(v) / 32768
	}
	return out
}

// PCMDuration returns the playback duration of a PCM16 byte chunk at the
// given sample rate, mono.
func PCMDuration(byteLen, sampleRate int) time.Duration {
	samples := byteLen / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
