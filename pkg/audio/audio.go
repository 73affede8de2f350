// Package audio turns the acoustic model's raw float32 waveform into a
// playable encoding: peak normalization and WAV container writing.
package audio

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultPeakTarget is the ceiling NormalizePeak scales samples to.
const DefaultPeakTarget = 0.97

// NormalizePeak scales samples in place so the loudest sample reaches
// DefaultPeakTarget. A silent buffer is left untouched.
func NormalizePeak(samples []float32) {
	NormalizePeakTo(samples, DefaultPeakTarget)
}

// NormalizePeakTo scales samples in place so the loudest absolute value
// reaches target.
func NormalizePeakTo(samples []float32, target float32) {
	if len(samples) == 0 {
		return
	}
	var peak float32
	for _, v := range samples {
		if abs := absf32(v); abs > peak {
			peak = abs
		}
	}
	if peak <= 0 {
		return
	}
	gain := target / peak
	for i := range samples {
		samples[i] *= gain
	}
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// PCMToWAV encodes a mono float32 PCM buffer as 16-bit WAV bytes.
func PCMToWAV(samples []float32, sampleRate int) ([]byte, error) {
	ws := &memWriteSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		ints[i] = int(s * 32767)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("audio: failed to write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("audio: failed to finalize WAV encoder: %w", err)
	}
	return ws.buf, nil
}

// PCMToMP3 is unimplemented: no MP3 encoder appears anywhere in this
// module's dependency set, and MP3 output is out of scope.
func PCMToMP3(_ []float32, _ int) ([]byte, error) {
	return nil, fmt.Errorf("audio: MP3 output is not supported by this build")
}

// memWriteSeeker is an in-memory io.WriteSeeker, needed because
// wav.Encoder seeks back to patch chunk sizes once writing completes.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(m.pos) + offset
	case io.SeekEnd:
		target = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("audio: invalid seek whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("audio: negative seek position %d", target)
	}
	m.pos = int(target)
	return target, nil
}
