package audioio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes c as 16-bit PCM WAV.
func WriteWAV(w io.WriteSeeker, c Chunk) error {
	enc := wav.NewEncoder(w, c.SampleRate, 16, c.Channels, 1)
	data := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: finalize: %w", err)
	}
	return nil
}

// WriteWAVFile writes c to path.
func WriteWAVFile(path string, c Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadWAV decodes a 16-bit PCM WAV stream.
func ReadWAV(r io.ReadSeeker) (Chunk, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Chunk{}, errors.New("wav: invalid file")
	}
	if dec.BitDepth != 16 {
		return Chunk{}, fmt.Errorf("wav: unsupported bit depth %d", dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Chunk{}, fmt.Errorf("wav: decode: %w", err)
	}

	c := Chunk{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Samples:    make([]int16, len(buf.Data)),
	}
	for i, v := range buf.Data {
		c.Samples[i] = int16(v)
	}
	return c, nil
}

// ReadWAVFile reads a WAV file from path.
func ReadWAVFile(path string) (Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return Chunk{}, err
	}
	defer f.Close()
	return ReadWAV(f)
}
