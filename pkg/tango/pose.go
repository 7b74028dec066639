package tango

import (
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// decodePose reads a pose record. A nil record with a nil error means the
// stream ended inside the frame marker.
func (d *Decoder) decodePose() (*Record, error) {
	start := d.r.Offset()
	if err := d.readTag(KindPose); err != nil {
		if errors.Is(err, ErrUnexpectedEOS) {
			level.Debug(d.logger).Log("msg", "stream ended in pose frame marker", "offset", start, "err", err)
			return nil, nil
		}
		return nil, err
	}

	fr := fieldReader{r: d.r}
	p := &Pose{Timestamp: fr.str()}
	p.BaseFrame = CoordinateFrame(fr.i32())
	p.TargetFrame = CoordinateFrame(fr.i32())
	p.Status = PoseStatus(fr.i32())
	for i := range p.Translation {
		p.Translation[i] = fr.f64()
	}
	for i := range p.Orientation {
		p.Orientation[i] = fr.f64()
	}
	if fr.err != nil {
		return nil, d.bodyErr(KindPose, start, "pose body", fr.err)
	}
	return &Record{Kind: KindPose, Offset: start, Size: d.r.Offset() - start, Pose: p}, nil
}
