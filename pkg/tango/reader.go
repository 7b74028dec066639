package tango

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// maxLengthBytes is the longest 7-bit encoded string length accepted, enough
// for any int32.
const maxLengthBytes = 5

// Reader is a cursor over a capture. It tracks the absolute offset itself so
// reads can stay buffered; the only backwards move is Reset.
type Reader struct {
	rs   io.ReadSeeker
	br   *bufio.Reader
	off  int64
	size int64
	buf  [8]byte
}

// NewReader measures rs and positions the cursor at its start.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "measuring stream")
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewinding stream")
	}
	return &Reader{rs: rs, br: bufio.NewReader(rs), size: size}, nil
}

// Offset is the cursor position in bytes from the start of the stream.
func (r *Reader) Offset() int64 { return r.off }

// Size is the stream length measured when the reader was created.
func (r *Reader) Size() int64 { return r.size }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int64 { return r.size - r.off }

// Exhausted reports whether the cursor reached the end of the stream.
func (r *Reader) Exhausted() bool { return r.off >= r.size }

// Reset moves the cursor back to offset 0.
func (r *Reader) Reset() error {
	if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "resetting stream")
	}
	r.br.Reset(r.rs)
	r.off = 0
	return nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, eos(err)
	}
	r.off++
	return b, nil
}

// ReadString reads a length-prefixed token: a 7-bit encoded length, low
// group first, followed by that many bytes of text.
func (r *Reader) ReadString() (string, error) {
	start := r.off
	n, err := r.readLength()
	if err != nil {
		return "", errors.Wrapf(err, "string length at offset %d", start)
	}
	if int64(n) > r.Remaining() {
		return "", errors.Wrapf(ErrUnexpectedEOS, "string at offset %d declares %d bytes, %d left", start, n, r.Remaining())
	}
	b := make([]byte, n)
	if err := r.readFull(b); err != nil {
		return "", errors.Wrapf(err, "string at offset %d", start)
	}
	return string(b), nil
}

func (r *Reader) readLength() (int, error) {
	var v uint64
	for i := 0; i < maxLengthBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			if v > math.MaxInt32 {
				return 0, ErrBadLength
			}
			return int(v), nil
		}
	}
	return 0, ErrBadLength
}

func (r *Reader) ReadInt32() (int32, error) {
	if err := r.readFull(r.buf[:4]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(r.buf[:4])), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	if err := r.readFull(r.buf[:4]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(r.buf[:4])), nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	if err := r.readFull(r.buf[:8]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.buf[:8])), nil
}

func (r *Reader) readFull(b []byte) error {
	n, err := io.ReadFull(r.br, b)
	r.off += int64(n)
	if err != nil {
		return eos(err)
	}
	return nil
}

// eos maps short reads to ErrUnexpectedEOS and leaves other I/O errors alone.
func eos(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrUnexpectedEOS
	}
	return err
}
