package tango

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnexpectedEOS is returned when a read needs more bytes than the
	// stream has left.
	ErrUnexpectedEOS = errors.New("unexpected end of stream")
	// ErrBadLength is returned for a string length prefix that is longer
	// than five bytes or does not fit an int32.
	ErrBadLength = errors.New("bad string length prefix")
	// ErrTagMismatch is returned when a record does not start with the
	// expected frame marker.
	ErrTagMismatch = errors.New("frame marker mismatch")
	// ErrBadPointCount is returned when a depth record's count token is not
	// a decimal integer.
	ErrBadPointCount = errors.New("bad point count")
	// ErrMissingInput is returned by DecodeFile when the capture does not exist.
	ErrMissingInput = errors.New("input file does not exist")
)

// MalformedError reports a record that cannot be decoded. The stream can not
// be realigned after one, so decoding stops.
type MalformedError struct {
	Offset int64
	Kind   Kind
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s record at offset %d: %s: %v", e.Kind, e.Offset, e.Reason, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
