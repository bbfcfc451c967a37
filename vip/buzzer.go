package vip

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Buzzer is a sink for the state of the sound timer.
type Buzzer interface {
	// Buzz is called once per timer tick with whether the buzzer sounds
	// during that tick.
	Buzz(on bool)
}

// WAV recording parameters.
const (
	wavSampleRate = 44100
	wavToneHz     = 440
	wavSilence    = 0x80
	wavAmplitude  = 0x40

	samplesPerTick = wavSampleRate / TimerHz
)

// WAVRecorder is a Buzzer that records a square wave tone to an 8-bit mono
// WAV file while the sound timer is active.
type WAVRecorder struct {
	f   *os.File
	enc *wav.Encoder
	buf audio.IntBuffer
	n   int // samples written, for the tone phase
	err error
}

// NewWAVRecorder creates the file at path. The file is complete once Close
// has been called.
func NewWAVRecorder(path string) (*WAVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating wav file: %w", err)
	}
	return &WAVRecorder{
		f:   f,
		enc: wav.NewEncoder(f, wavSampleRate, 8, 1, 1),
		buf: audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: wavSampleRate},
			Data:           make([]int, samplesPerTick),
			SourceBitDepth: 8,
		},
	}, nil
}

// Buzz implements Buzzer.
func (w *WAVRecorder) Buzz(on bool) {
	if w.err != nil {
		return
	}
	for i := range w.buf.Data {
		w.buf.Data[i] = w.sample(on)
		w.n++
	}
	w.err = w.enc.Write(&w.buf)
}

func (w *WAVRecorder) sample(on bool) int {
	if !on {
		return wavSilence
	}
	if w.n*2*wavToneHz/wavSampleRate%2 == 0 {
		return wavSilence + wavAmplitude
	}
	return wavSilence - wavAmplitude
}

// Close finishes the WAV headers and closes the file. It returns the first
// error encountered while recording.
func (w *WAVRecorder) Close() error {
	err := w.err
	if w.n == 0 && err == nil {
		// Write the headers of an empty recording.
		err = w.enc.Write(&audio.IntBuffer{Format: w.buf.Format, SourceBitDepth: 8})
	}
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing wav file: %w", err)
	}
	return nil
}
