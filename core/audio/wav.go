package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WAVHeaderSize is the size of the canonical RIFF/WAVE header written by
// EncodeWAV.
const WAVHeaderSize = 44

var ErrInvalidWAV = errors.New("invalid wav container")

// EncodeWAV wraps linear16 PCM in a minimal RIFF/WAVE container: a 44-byte
// header (RIFF chunk, PCM "fmt " subchunk, "data" subchunk) followed by the
// samples unchanged.
func EncodeWAV(pcm []byte, info EncodingInfo) ([]byte, error) {
	if info.Format != EncodingLinear16 {
		return nil, fmt.Errorf("wav: unsupported format %q", info.Format.Name())
	}
	if info.SampleRate <= 0 || info.Channels <= 0 {
		return nil, fmt.Errorf("wav: invalid encoding info %s", info)
	}

	dataLen := uint32(len(pcm))
	buf := bytes.NewBuffer(make([]byte, 0, WAVHeaderSize+len(pcm)))

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, dataLen+WAVHeaderSize-8)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16)) // PCM fmt chunk size
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(info.Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(info.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(info.ByteRate()))
	_ = binary.Write(buf, binary.LittleEndian, uint16(info.BytesPerFrame()))
	_ = binary.Write(buf, binary.LittleEndian, uint16(info.BitDepth()))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataLen)
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// DecodeWAV reads a RIFF/WAVE header from r and returns the PCM encoding and a
// reader positioned at the start of the sample data. Chunks other than "fmt "
// and "data" are skipped.
func DecodeWAV(r io.Reader) (EncodingInfo, io.Reader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return EncodingInfo{}, nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return EncodingInfo{}, nil, ErrInvalidWAV
	}

	var (
		info    EncodingInfo
		haveFmt bool
	)
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return EncodingInfo{}, nil, fmt.Errorf("%w: missing data chunk: %w", ErrInvalidWAV, err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return EncodingInfo{}, nil, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return EncodingInfo{}, nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			bitDepth := binary.LittleEndian.Uint16(body[14:16])
			if audioFormat != 1 || bitDepth != 16 {
				return EncodingInfo{}, nil, fmt.Errorf("wav: unsupported format %d/%d-bit", audioFormat, bitDepth)
			}
			info = EncodingInfo{
				Channels:   int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate: int(binary.LittleEndian.Uint32(body[4:8])),
				Format:     EncodingLinear16,
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return EncodingInfo{}, nil, fmt.Errorf("%w: data before fmt", ErrInvalidWAV)
			}
			return info, io.LimitReader(r, int64(size)), nil
		default:
			// RIFF chunks are word aligned.
			if _, err := io.CopyN(io.Discard, r, int64(size+size%2)); err != nil {
				return EncodingInfo{}, nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
			}
		}
	}
}
