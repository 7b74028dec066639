// Package tango decodes capture logs written by Tango tracking devices.
//
// A capture is a sequence of records with no file header. Every record starts
// with a length-prefixed frame marker and is one of
//
//	pose:  "poseframe\n"  timestamp  int32 base  int32 target  int32 status
//	       float64 tx ty tz  float64 a b c d
//	depth: "depthframe\n" timestamp  count  count * (float32 x y z)
//
// Strings are a 7-bit encoded length followed by the text; timestamps and
// counts are decimal text. All numbers are little-endian. Records carry no
// length of their own, so every field has to be consumed to find the next one.
package tango

import (
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	util_log "tangodecode/pkg/log"
	"tangodecode/pkg/pcd"
)

// Handler receives every decoded record in stream order. A depth record cut
// short by the end of the stream is passed with the points read before it,
// so len(Points) is below Declared.
type Handler func(rec Record)

// Stats describes a finished decode pass.
type Stats struct {
	Poses       int
	DepthFrames int
	Points      int
	ZeroPoints  int
	// Consumed is the furthest offset the cursor reached.
	Consumed int64
	Size     int64
	// Recovered is set when a depth frame marker ran into the end of the
	// stream and the position 0 reread ended the pass.
	Recovered bool
	// Truncated is set when the stream ended inside a record body.
	Truncated bool
}

type Option func(*Decoder)

func WithLogger(l log.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

func WithHandler(h Handler) Option {
	return func(d *Decoder) { d.handler = h }
}

// Decoder runs one pass over a capture.
type Decoder struct {
	r       *Reader
	logger  log.Logger
	handler Handler
	stats   Stats
}

func NewDecoder(rs io.ReadSeeker, opts ...Option) (*Decoder, error) {
	r, err := NewReader(rs)
	if err != nil {
		return nil, err
	}
	d := &Decoder{r: r, logger: util_log.Logger}
	for _, o := range opts {
		o(d)
	}
	d.stats.Size = r.Size()
	return d, nil
}

// Decode reads a whole capture and returns every depth point in stream order.
func Decode(rs io.ReadSeeker, opts ...Option) (*pcd.PointCloud, error) {
	d, err := NewDecoder(rs, opts...)
	if err != nil {
		return nil, err
	}
	return d.Decode()
}

// DecodeFile decodes the capture at path.
func DecodeFile(path string, opts ...Option) (*pcd.PointCloud, Stats, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, Stats{}, errors.Wrap(ErrMissingInput, path)
		}
		return nil, Stats{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()

	d, err := NewDecoder(f, opts...)
	if err != nil {
		return nil, Stats{}, err
	}
	cloud, err := d.Decode()
	return cloud, d.Stats(), err
}

// Decode alternates pose and depth records until the cursor reaches the end
// of the stream.
//
// The stream ending inside a record is not an error: the pass stops and the
// points read so far are returned. A record that can not be decoded stops
// the pass with a *MalformedError, returned alongside the points decoded
// before it.
func (d *Decoder) Decode() (*pcd.PointCloud, error) {
	cloud := &pcd.PointCloud{Points: []pcd.Point{}}
	defer func() {
		d.stats.Points = cloud.Len()
	}()

	for !d.r.Exhausted() {
		rec, err := d.decodePose()
		if err != nil {
			return cloud, d.stop(err)
		}
		if rec != nil {
			d.stats.Poses++
			d.emit(rec)
		}

		rec, err = d.decodeDepth()
		if rec != nil {
			d.accumulate(cloud, rec.Depth.Points)
			if err == nil {
				d.stats.DepthFrames++
			}
			d.emit(rec)
		}
		if err != nil {
			return cloud, d.stop(err)
		}
	}
	d.mark()
	return cloud, nil
}

// Stats returns the counters of the last Decode.
func (d *Decoder) Stats() Stats {
	return d.stats
}

func (d *Decoder) accumulate(cloud *pcd.PointCloud, pts []pcd.Point) {
	for _, p := range pts {
		if p.IsZero() {
			d.stats.ZeroPoints++
		}
	}
	cloud.AddPoints(pts...)
}

// stop ends the pass. Running out of stream is a normal end, anything else
// is returned to the caller.
func (d *Decoder) stop(err error) error {
	switch {
	case errors.Is(err, errRecovered):
		d.stats.Recovered = true
		return nil
	case errors.Is(err, ErrUnexpectedEOS):
		d.mark()
		d.stats.Truncated = true
		level.Warn(d.logger).Log("msg", "capture ends inside a record", "offset", d.r.Offset(), "size", d.r.Size(), "err", err)
		return nil
	}
	d.mark()
	level.Error(d.logger).Log("msg", "decode stopped", "offset", d.r.Offset(), "err", err)
	return err
}

func (d *Decoder) mark() {
	if off := d.r.Offset(); off > d.stats.Consumed {
		d.stats.Consumed = off
	}
}

func (d *Decoder) emit(rec *Record) {
	d.mark()
	if d.handler != nil {
		d.handler(*rec)
	}
}
