package tango

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"

	"tangodecode/pkg/pcd"
)

// capture assembles capture bytes for tests.
type capture struct {
	bytes.Buffer
}

func (c *capture) str(s string) *capture {
	c.Write(binary.AppendUvarint(nil, uint64(len(s))))
	c.WriteString(s)
	return c
}

func (c *capture) i32(v int32) *capture {
	c.Write(binary.LittleEndian.AppendUint32(nil, uint32(v)))
	return c
}

func (c *capture) f32(v float32) *capture {
	c.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)))
	return c
}

func (c *capture) f64(v float64) *capture {
	c.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
	return c
}

func (c *capture) pose(ts string, base, target CoordinateFrame, status PoseStatus, t [3]float64, q [4]float64) *capture {
	c.str(PoseTag).str(ts).i32(int32(base)).i32(int32(target)).i32(int32(status))
	for _, v := range t {
		c.f64(v)
	}
	for _, v := range q {
		c.f64(v)
	}
	return c
}

// anyPose appends a pose record with fixed values.
func (c *capture) anyPose() *capture {
	return c.pose("1433256000.125", FrameStartOfService, FrameDevice, PoseValid,
		[3]float64{0.5, -1.25, 2}, [4]float64{0, 0, 0, 1})
}

func (c *capture) depth(ts string, pts ...pcd.Point) *capture {
	c.depthHeader(ts, strconv.Itoa(len(pts)))
	for _, p := range pts {
		c.f32(p.X).f32(p.Y).f32(p.Z)
	}
	return c
}

func (c *capture) depthHeader(ts, count string) *capture {
	return c.str(DepthTag).str(ts).str(count)
}

func (c *capture) reader() *bytes.Reader {
	return bytes.NewReader(c.Bytes())
}
