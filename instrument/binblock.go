package instrument

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// IEEE 488.2 definite-length binary block element widths.
const (
	// BlockFloat32 decodes REAL,32 payloads.
	BlockFloat32 = 4
	// BlockFloat64 decodes REAL,64 payloads.
	BlockFloat64 = 8
)

// ReadBinaryBlock decodes an IEEE 488.2 definite-length binary block:
//
//	#<x><yyy><payload>\n
//
// where <x> is a single hexadecimal digit giving the length of <yyy>, and
// <yyy> is the decimal payload size in bytes. The payload holds IEEE 754
// little-endian values of the given element width (BlockFloat32 or
// BlockFloat64), widened to float64.
func ReadBinaryBlock(r io.Reader, width int) ([]float64, error) {
	if width != BlockFloat32 && width != BlockFloat64 {
		return nil, fmt.Errorf("%w: element width %d not supported", ErrBlockFormat, width)
	}

	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, fmt.Errorf("%w: reading marker: %w", ErrBlockFormat, err)
	}
	if b[0] != '#' {
		return nil, fmt.Errorf("%w: data does not start with '#' (got %q)", ErrBlockFormat, b[0])
	}

	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header length: %w", ErrBlockFormat, err)
	}
	headerLen, err := strconv.ParseUint(string(b[:]), 16, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: header length %q is not a hex digit", ErrBlockFormat, b[0])
	}
	if headerLen == 0 {
		return nil, fmt.Errorf("%w: indefinite-length blocks not supported", ErrBlockFormat)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: reading byte count: %w", ErrBlockFormat, err)
	}
	nbytes, err := strconv.Atoi(string(header))
	if err != nil {
		return nil, fmt.Errorf("%w: byte count %q is not a number", ErrBlockFormat, header)
	}
	if nbytes%width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte elements", ErrBlockFormat, nbytes, width)
	}

	payload := make([]byte, nbytes)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: reading payload: %w", ErrBlockFormat, err)
	}

	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, fmt.Errorf("%w: reading terminator: %w", ErrBlockFormat, err)
	}
	if b[0] != '\n' {
		return nil, fmt.Errorf("%w: data not terminated correctly (got %q)", ErrBlockFormat, b[0])
	}

	data := make([]float64, nbytes/width)
	switch width {
	case BlockFloat32:
		for i := range data {
			bits := binary.LittleEndian.Uint32(payload[i*4:])
			data[i] = float64(math.Float32frombits(bits))
		}
	case BlockFloat64:
		for i := range data {
			bits := binary.LittleEndian.Uint64(payload[i*8:])
			data[i] = math.Float64frombits(bits)
		}
	}
	return data, nil
}

// WriteBinaryBlock encodes data as an IEEE 488.2 definite-length binary
// block in the same format ReadBinaryBlock decodes. Values are narrowed to
// float32 when width is BlockFloat32.
func WriteBinaryBlock(w io.Writer, data []float64, width int) error {
	if width != BlockFloat32 && width != BlockFloat64 {
		return fmt.Errorf("%w: element width %d not supported", ErrBlockFormat, width)
	}

	payload := make([]byte, len(data)*width)
	switch width {
	case BlockFloat32:
		for i, v := range data {
			binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(float32(v)))
		}
	case BlockFloat64:
		for i, v := range data {
			binary.LittleEndian.PutUint64(payload[i*8:], math.Float64bits(v))
		}
	}

	count := strconv.Itoa(len(payload))
	header := fmt.Sprintf("#%x%s", len(count), count)

	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("writing block header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing block payload: %w", err)
	}
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("writing block terminator: %w", err)
	}
	return nil
}
