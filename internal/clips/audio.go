package clips

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/flac"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

// Segment is interleaved PCM audio with its source format
type Segment struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Data       []int // interleaved samples
}

// Frames returns the number of sample frames in the segment
func (s *Segment) Frames() int {
	if s.Channels == 0 {
		return 0
	}
	return len(s.Data) / s.Channels
}

// Duration returns the length of the segment
func (s *Segment) Duration() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(s.Frames()) / float64(s.SampleRate) * float64(time.Second))
}

// frameRange converts an offset and duration to a frame range clipped to total frames
func frameRange(sampleRate, totalFrames int, offset, duration time.Duration) (int, int) {
	start := int(math.Round(offset.Seconds() * float64(sampleRate)))
	end := start + int(math.Round(duration.Seconds()*float64(sampleRate)))
	start = min(max(start, 0), totalFrames)
	end = min(max(end, start), totalFrames)
	return start, end
}

// ReadSegment reads [offset, offset+duration) from a WAV or FLAC file. A
// segment running past the end of the file is truncated. An offset at or
// past the end is an error.
func ReadSegment(path string, offset, duration time.Duration) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		category := errors.CategoryFileIO
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(err).
			Component("clips").
			Category(category).
			FileContext(path).
			Build()
	}
	defer func() { _ = f.Close() }()

	var seg *Segment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		seg, err = readWAVSegment(f, offset, duration)
	case ".flac":
		seg, err = readFLACSegment(f, offset, duration)
	default:
		err = fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.New(err).
			Component("clips").
			Category(errors.CategoryAudio).
			FileContext(path).
			Context("offset_s", offset.Seconds()).
			Build()
	}
	if len(seg.Data) == 0 {
		return nil, errors.Newf("no audio at offset %s", offset).
			Component("clips").
			Category(errors.CategoryAudio).
			FileContext(path).
			Build()
	}
	return seg, nil
}

func readWAVSegment(f *os.File, offset, duration time.Duration) (*Segment, error) {
	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file format")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	chans := int(decoder.NumChans)
	rate := int(decoder.SampleRate)
	if chans == 0 || rate == 0 {
		return nil, fmt.Errorf("WAV header has %d channels at %d Hz", chans, rate)
	}

	start, end := frameRange(rate, len(buf.Data)/chans, offset, duration)
	data := make([]int, (end-start)*chans)
	copy(data, buf.Data[start*chans:end*chans])

	return &Segment{
		SampleRate: rate,
		BitDepth:   int(decoder.BitDepth),
		Channels:   chans,
		Data:       data,
	}, nil
}

func readFLACSegment(f *os.File, offset, duration time.Duration) (*Segment, error) {
	decoder, err := flac.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	rate, bits, chans := decoder.SampleRate, decoder.BitsPerSample, decoder.NChannels
	if chans == 0 || rate == 0 {
		return nil, fmt.Errorf("FLAC stream has %d channels at %d Hz", chans, rate)
	}
	bytesPerSample := bits / 8
	if bytesPerSample < 1 || bytesPerSample > 4 {
		return nil, fmt.Errorf("unsupported FLAC bit depth: %d", bits)
	}

	// frame range against an unbounded length, the stream end truncates
	start, end := frameRange(rate, math.MaxInt32, offset, duration)
	seg := &Segment{SampleRate: rate, BitDepth: bits, Channels: chans}
	frame := 0

	for frame < end {
		block, err := decoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		step := bytesPerSample * chans
		for i := 0; i+step <= len(block); i += step {
			if frame >= start && frame < end {
				for c := range chans {
					seg.Data = append(seg.Data, decodeSample(block[i+c*bytesPerSample:], bits))
				}
			}
			frame++
		}
	}
	return seg, nil
}

// decodeSample reads one little-endian signed sample of the given bit depth
func decodeSample(b []byte, bits int) int {
	switch bits {
	case 8:
		return int(int8(b[0]))
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		return int(v<<8) >> 8
	default:
		return int(int32(binary.LittleEndian.Uint32(b)))
	}
}

// WriteWAV writes seg as a PCM WAV file with the segment's sample rate, bit
// depth and channel count, creating parent directories.
func WriteWAV(path string, seg *Segment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("clips").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	out, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Component("clips").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	enc := wav.NewEncoder(out, seg.SampleRate, seg.BitDepth, seg.Channels, 1)
	buf := &audio.IntBuffer{
		Data:           seg.Data,
		Format:         &audio.Format{SampleRate: seg.SampleRate, NumChannels: seg.Channels},
		SourceBitDepth: seg.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = out.Close()
		return errors.New(fmt.Errorf("failed to write to WAV encoder: %w", err)).
			Component("clips").
			Category(errors.CategoryAudio).
			FileContext(path).
			Build()
	}
	if err := enc.Close(); err != nil {
		_ = out.Close()
		return errors.New(err).
			Component("clips").
			Category(errors.CategoryAudio).
			FileContext(path).
			Build()
	}
	return out.Close()
}
