package tangodecode

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangodecode/pkg/pcd"
	"tangodecode/pkg/tango"
)

func appendString(b []byte, s string) []byte {
	b = binary.AppendUvarint(b, uint64(len(s)))
	return append(b, s...)
}

func appendPose(b []byte, ts string) []byte {
	b = appendString(b, tango.PoseTag)
	b = appendString(b, ts)
	for _, v := range []int32{1, 4, 1} {
		b = binary.LittleEndian.AppendUint32(b, uint32(v))
	}
	for _, v := range []float64{0.5, -1, 2, 0, 0, 0, 1} {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b
}

func appendDepth(b []byte, ts, count string, pts ...float32) []byte {
	b = appendString(b, tango.DepthTag)
	b = appendString(b, ts)
	b = appendString(b, count)
	for _, v := range pts {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func TestDecodePCD(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scan.tango")
	var b []byte
	b = appendPose(b, "1.5")
	b = appendDepth(b, "1.5", "2", 1, 2, 3, 0, 0, 0)
	b = appendPose(b, "1.6")
	b = appendDepth(b, "1.6", "1", -0.25, 4, 1e-3)
	require.NoError(t, os.WriteFile(in, b, 0o644))

	cloud, stats, err := tango.DecodeFile(in)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Poses)
	assert.Equal(t, 2, stats.DepthFrames)
	assert.Equal(t, int64(len(b)), stats.Consumed)
	require.Equal(t, 3, cloud.Len())

	want := []pcd.Point{{X: 1, Y: 2, Z: 3}, {X: -0.25, Y: 4, Z: 1e-3}}
	assert.Equal(t, want, cloud.NonZero().Points)

	out := filepath.Join(dir, "scan.txt")
	csvOut := pcd.CSVPath(out)
	pcdOut := filepath.Join(dir, "scan.pcd")
	require.NoError(t, pcd.WriteAll(cloud,
		pcd.TextSink{Path: out},
		pcd.CSVSink{Path: csvOut},
		pcd.PCDSink{Path: pcdOut, DataType: pcd.DataBinaryCompressed},
	))

	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n-0.25 4 0.001\n", string(text))

	csvText, err := os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.Equal(t, "x coord,y coord,z coord\n1,2,3\n-0.25,4,0.001\n", string(csvText))

	reloaded, err := tango.LoadFile(pcdOut)
	require.NoError(t, err)
	assert.Equal(t, want, reloaded.Points)
}
