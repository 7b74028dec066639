package tango

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"tangodecode/pkg/pcd"
)

// errRecovered reports that a depth frame marker ran into the end of the
// stream and the cursor was sent back to the start.
var errRecovered = errors.New("depth frame marker recovery")

// decodeDepth reads a depth record. When the stream ends inside the points
// the record holds the complete points read so far and the error is
// ErrUnexpectedEOS.
func (d *Decoder) decodeDepth() (*Record, error) {
	start := d.r.Offset()
	if err := d.readTag(KindDepth); err != nil {
		if errors.Is(err, ErrUnexpectedEOS) {
			return nil, d.recoverDepth(start, err)
		}
		return nil, err
	}

	fr := fieldReader{r: d.r}
	f := &DepthFrame{Timestamp: fr.str()}
	count := fr.str()
	if fr.err != nil {
		return nil, d.bodyErr(KindDepth, start, "depth header", fr.err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil {
		return nil, &MalformedError{Offset: start, Kind: KindDepth, Reason: fmt.Sprintf("point count %q", count), Err: ErrBadPointCount}
	}
	if n < 0 {
		n = 0
	}
	f.Declared = n

	capacity := n
	if fit := int(d.r.Remaining() / 12); fit < capacity {
		capacity = fit
	}
	f.Points = make([]pcd.Point, 0, capacity)
	for i := 0; i < n; i++ {
		pt := pcd.Point{X: fr.f32(), Y: fr.f32(), Z: fr.f32()}
		if fr.err != nil {
			break
		}
		f.Points = append(f.Points, pt)
	}

	rec := &Record{Kind: KindDepth, Offset: start, Size: d.r.Offset() - start, Depth: f}
	if fr.err != nil {
		return rec, d.bodyErr(KindDepth, start, fmt.Sprintf("point %d of %d", len(f.Points), n), fr.err)
	}
	return rec, nil
}

// recoverDepth handles a depth frame marker cut short by the end of the
// stream: the cursor goes back to offset 0 and the marker there is read
// again. The call contributes no points whatever that read finds.
func (d *Decoder) recoverDepth(off int64, cause error) error {
	level.Warn(d.logger).Log("msg", "depth frame marker hit end of stream, rereading from start", "offset", off, "err", cause)
	d.mark()
	if err := d.r.Reset(); err != nil {
		return err
	}
	tag, err := d.r.ReadString()
	level.Debug(d.logger).Log("msg", "reread frame marker", "tag", strconv.Quote(tag), "err", err)
	return errRecovered
}
