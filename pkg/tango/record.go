package tango

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"tangodecode/pkg/pcd"
)

// Frame markers. The trailing newline is part of the marker.
const (
	PoseTag  = "poseframe\n"
	DepthTag = "depthframe\n"
)

// Kind is the type of a record.
type Kind int

const (
	KindPose Kind = iota + 1
	KindDepth
)

func (k Kind) String() string {
	switch k {
	case KindPose:
		return "pose"
	case KindDepth:
		return "depth"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Tag is the frame marker that opens a record of this kind.
func (k Kind) Tag() string {
	if k == KindPose {
		return PoseTag
	}
	return DepthTag
}

// Record is one decoded record. Exactly one of Pose and Depth is set,
// matching Kind. Size is the number of bytes the record occupied.
type Record struct {
	Kind   Kind
	Offset int64
	Size   int64
	Pose   *Pose
	Depth  *DepthFrame
}

// Pose is a device pose sample.
type Pose struct {
	Timestamp   string
	BaseFrame   CoordinateFrame
	TargetFrame CoordinateFrame
	Status      PoseStatus
	Translation [3]float64
	// Orientation is the rotation quaternion in a, b, c, d order.
	Orientation [4]float64
}

// Seconds parses the decimal timestamp.
func (p *Pose) Seconds() (float64, error) {
	return parseTimestamp(p.Timestamp)
}

// DepthFrame is one depth scan. Declared is the point count written in the
// record; Points may be shorter when the stream ends inside the frame.
type DepthFrame struct {
	Timestamp string
	Declared  int
	Points    []pcd.Point
}

func (f *DepthFrame) Seconds() (float64, error) {
	return parseTimestamp(f.Timestamp)
}

func parseTimestamp(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// fieldReader reads consecutive fields and keeps the first error, so record
// layouts read top to bottom.
type fieldReader struct {
	r   *Reader
	err error
}

func (f *fieldReader) str() string {
	if f.err != nil {
		return ""
	}
	var s string
	s, f.err = f.r.ReadString()
	return s
}

func (f *fieldReader) i32() int32 {
	if f.err != nil {
		return 0
	}
	var v int32
	v, f.err = f.r.ReadInt32()
	return v
}

func (f *fieldReader) f32() float32 {
	if f.err != nil {
		return 0
	}
	var v float32
	v, f.err = f.r.ReadFloat32()
	return v
}

func (f *fieldReader) f64() float64 {
	if f.err != nil {
		return 0
	}
	var v float64
	v, f.err = f.r.ReadFloat64()
	return v
}

// readTag reads the next token and checks it against the marker of k. The
// cursor is left after the token either way.
func (d *Decoder) readTag(k Kind) error {
	off := d.r.Offset()
	tag, err := d.r.ReadString()
	if err != nil {
		return d.bodyErr(k, off, "frame marker", err)
	}
	if tag != k.Tag() {
		return &MalformedError{Offset: off, Kind: k, Reason: fmt.Sprintf("frame marker %q", tag), Err: ErrTagMismatch}
	}
	return nil
}

// bodyErr classifies a read failure inside record k starting at off. Short
// reads stay ErrUnexpectedEOS, corrupt framing becomes a MalformedError.
func (d *Decoder) bodyErr(k Kind, off int64, field string, err error) error {
	if errors.Is(err, ErrBadLength) {
		return &MalformedError{Offset: off, Kind: k, Reason: field, Err: err}
	}
	return errors.Wrapf(err, "%s record at offset %d: %s", k, off, field)
}
