package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// ReadWAV decodes an integer PCM WAV file into normalised interleaved samples.
func ReadWAV(path string) (Format, []float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Format{}, nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	if d.WavAudioFormat != wavFormatPCM {
		return Format{}, nil, fmt.Errorf("%s: unsupported wav encoding %d", path, d.WavAudioFormat)
	}
	if d.BitDepth == 0 || d.BitDepth > 32 {
		return Format{}, nil, fmt.Errorf("%s: unsupported bit depth %d", path, d.BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Format{}, nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	format := Format{SampleRate: d.SampleRate, Channels: uint32(d.NumChans)}
	if !format.Valid() {
		return Format{}, nil, fmt.Errorf("%s: invalid format %+v", path, format)
	}

	scale := float32(int64(1) << (d.BitDepth - 1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}
	return format, samples, nil
}

// WAVInfo reads the format and playing time from a WAV header.
func WAVInfo(path string) (Format, time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Format{}, 0, fmt.Errorf("%s: not a valid wav file", path)
	}
	// Decoder.Duration counts the header bytes of the RIFF chunk, so the
	// length comes from the data chunk instead.
	if err := d.FwdToPCM(); err != nil {
		return Format{}, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	format := Format{SampleRate: d.SampleRate, Channels: uint32(d.NumChans)}
	frameBytes := int(d.NumChans) * int(d.BitDepth) / 8
	if !format.Valid() || frameBytes == 0 {
		return Format{}, 0, fmt.Errorf("%s: invalid format %+v, %d bits", path, format, d.BitDepth)
	}
	return format, format.Duration(uint64(d.PCMSize / frameBytes)), nil
}
