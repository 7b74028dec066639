package tango

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"tangodecode/pkg/pcd"
)

// Printer echoes records in a human readable form.
type Printer struct {
	w      io.Writer
	points bool
}

// NewPrinter returns a Printer writing to w. With points set every depth
// point is listed under its frame.
func NewPrinter(w io.Writer, points bool) *Printer {
	return &Printer{w: w, points: points}
}

// Handle prints rec. It has the Handler signature.
func (p *Printer) Handle(rec Record) {
	switch rec.Kind {
	case KindPose:
		ps := rec.Pose
		fmt.Fprintf(p.w, "pose  @%d t=%s base=%s target=%s status=%s translation=(%g, %g, %g) orientation=(%g, %g, %g, %g)\n",
			rec.Offset, timestampLabel(ps.Timestamp), ps.BaseFrame, ps.TargetFrame, ps.Status,
			ps.Translation[0], ps.Translation[1], ps.Translation[2],
			ps.Orientation[0], ps.Orientation[1], ps.Orientation[2], ps.Orientation[3])
	case KindDepth:
		f := rec.Depth
		if len(f.Points) < f.Declared {
			fmt.Fprintf(p.w, "depth @%d t=%s points=%d of %d\n", rec.Offset, timestampLabel(f.Timestamp), len(f.Points), f.Declared)
		} else {
			fmt.Fprintf(p.w, "depth @%d t=%s points=%d\n", rec.Offset, timestampLabel(f.Timestamp), len(f.Points))
		}
		if !p.points {
			return
		}
		for _, pt := range f.Points {
			fmt.Fprintf(p.w, "  %s %s %s\n", pcd.FormatCoord(pt.X), pcd.FormatCoord(pt.Y), pcd.FormatCoord(pt.Z))
		}
	}
}

func timestampLabel(s string) string {
	if v, err := parseTimestamp(s); err == nil {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.Quote(s)
}

// WriteSummary renders s as a table.
func WriteSummary(w io.Writer, s Stats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Poses", "Depth frames", "Points", "Zero points", "Bytes", "Ended"})
	table.Append([]string{
		strconv.Itoa(s.Poses),
		strconv.Itoa(s.DepthFrames),
		strconv.Itoa(s.Points),
		strconv.Itoa(s.ZeroPoints),
		fmt.Sprintf("%d/%d", s.Consumed, s.Size),
		s.ending(),
	})
	table.Render()
}

func (s Stats) ending() string {
	switch {
	case s.Truncated:
		return "truncated"
	case s.Recovered:
		return "recovered"
	}
	return "complete"
}
