package pcd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/seqsense/pcgol/pc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	points := []Point{{X: 1, Y: 2, Z: 3}, {X: -4.5, Y: 0.125, Z: 1e6}, {X: 0, Y: 0, Z: -0.001}}
	for _, dataType := range []string{DataASCII, DataBinary, DataBinaryCompressed} {
		t.Run(dataType, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewPcd(&PointCloud{Points: points}).EncodeAs(&buf, dataType))
			assert.Contains(t, buf.String(), "DATA "+dataType+"\n")

			p, err := DecodePcd(&buf)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(points, p.Points))
			assert.Equal(t, 3, p.PointCount())
		})

		t.Run(dataType+" empty", func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewPcd(&PointCloud{}).EncodeAs(&buf, dataType))
			p, err := DecodePcd(&buf)
			require.NoError(t, err)
			assert.Equal(t, 0, p.PointCount())
		})
	}
}

func TestEncode_UnknownDataType(t *testing.T) {
	var buf bytes.Buffer
	err := NewPcd(&PointCloud{}).EncodeAs(&buf, "binary_scrambled")
	assert.ErrorIs(t, err, ErrUnsupportPcdDataType)
	assert.Zero(t, buf.Len())
}

func TestDecodePcd_ExtraFields(t *testing.T) {
	src := strings.Join([]string{
		"# comment",
		"VERSION 0.7",
		"FIELDS intensity x y z",
		"SIZE 4 4 4 4",
		"TYPE F F F F",
		"COUNT 1 1 1 1",
		"WIDTH 2",
		"HEIGHT 1",
		"VIEWPOINT 0 0 0 1 0 0 0",
		"POINTS 2",
		"DATA ascii",
		"0.9 1 2 3",
		"0.1 4 5 6",
		"",
	}, "\n")

	p, err := DecodePcd(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []Point{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}, p.Points)
}

func TestDecodePcd_Errors(t *testing.T) {
	for name, tc := range map[string]struct {
		src  string
		want error
	}{
		"version": {
			src:  "VERSION 0.5\n",
			want: ErrUnsupportPcdVersion,
		},
		"data type": {
			src:  "VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 0\nHEIGHT 1\nPOINTS 0\nDATA packed\n",
			want: ErrUnsupportPcdDataType,
		},
		"field size": {
			src:  "VERSION 0.7\nFIELDS x y z\nSIZE 8 8 8\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 0\nHEIGHT 1\nPOINTS 0\nDATA binary\n",
			want: ErrUnsupportPcdFieldSize,
		},
		"field type": {
			src:  "VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE I I I\nCOUNT 1 1 1\nWIDTH 0\nHEIGHT 1\nPOINTS 0\nDATA binary\n",
			want: ErrUnsupportPcdFieldType,
		},
		"missing z": {
			src:  "VERSION 0.7\nFIELDS x y\nSIZE 4 4\nTYPE F F\nCOUNT 1 1\nWIDTH 0\nHEIGHT 1\nPOINTS 0\nDATA binary\n",
			want: ErrInvalidPcdFormat,
		},
		"no data line": {
			src:  "VERSION 0.7\nFIELDS x y z\n",
			want: ErrInvalidPcdFormat,
		},
		"negative width": {
			src:  "VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH -1\nHEIGHT 1\nPOINTS 1\nDATA ascii\n1 2 3\n",
			want: ErrInvalidPcdFormat,
		},
		"width times height overflows": {
			src:  "VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 4294967296\nHEIGHT 4294967296\nPOINTS 0\nDATA binary\n",
			want: ErrInvalidPcdFormat,
		},
		"negative field size": {
			src:  "VERSION 0.7\nFIELDS x y z w\nSIZE 4 4 4 -1\nTYPE F F F F\nCOUNT 1 1 1 1\nWIDTH 1\nHEIGHT 1\nPOINTS 1\nDATA binary\n",
			want: ErrInvalidPcdFormat,
		},
		"compressed sizes out of proportion": {
			src: "VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 1000000\nHEIGHT 1\nPOINTS 1000000\nDATA binary_compressed\n" +
				"\x0a\x00\x00\x00\x00\x1b\xb7\x00",
			want: ErrInvalidPcdFormat,
		},
		"compressed block short": {
			src: "VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 1\nHEIGHT 1\nPOINTS 1\nDATA binary_compressed\n" +
				"\x14\x00\x00\x00\x0c\x00\x00\x00abc",
			want: ErrInvalidPcdFormat,
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePcd(strings.NewReader(tc.src))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEncode_ReadableByPcgol(t *testing.T) {
	points := []Point{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}
	var buf bytes.Buffer
	require.NoError(t, NewPcd(&PointCloud{Points: points}).Encode(&buf))

	pp, err := pc.Unmarshal(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, pp.Points)
	assert.Equal(t, []string{"x", "y", "z"}, pp.Fields)
}

func TestXYArea(t *testing.T) {
	p := NewPcd(&PointCloud{Points: []Point{
		{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.3}, // same 1m cell
		{X: 1.5, Y: 0.1},
		{X: 1.5, Y: 2.5, Z: 9},
	}})
	assert.Equal(t, float32(3), p.XYArea(1))
	assert.Equal(t, float32(0.75), p.XYArea(2))
}

func TestXYAreaPointCount(t *testing.T) {
	p := NewPcd(&PointCloud{Points: []Point{
		{X: 0, Y: 0, Z: 0},
		{X: 0.9, Y: 0.4, Z: 0},
		{X: 3, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 5},
	}})
	assert.Equal(t, 2, p.XYAreaPointCount(0, 0, 0, 2, 2, 2, 0))
	assert.Equal(t, 4, p.XYAreaPointCount(0, 0, 0, 10, 10, 20, 0))
}
