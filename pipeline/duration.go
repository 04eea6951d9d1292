package pipeline

import (
	"bytes"

	"github.com/go-audio/wav"
)

// assumedByteRate is the fallback rate for payloads whose container cannot
// be read, matching the 48 kHz capture rate of the recorder.
const assumedByteRate = 48000

// EstimateDuration reads the real duration from the WAV header when the
// payload is a parseable WAV file, falling back to a byte-length estimate
// otherwise.
func EstimateDuration(audio []byte) float64 {
	decoder := wav.NewDecoder(bytes.NewReader(audio))
	if dur, err := decoder.Duration(); err == nil && dur > 0 {
		return dur.Seconds()
	}
	return float64(len(audio)) / assumedByteRate
}
