package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"tangodecode/pkg/pcd"
	"tangodecode/pkg/tango"
)

// DefaultPrecision is the grid resolution used when a request leaves it out.
const DefaultPrecision = 0.08

// Request asks for statistics of one point cloud file, either a capture or a
// PCD file. Each label is a box: cx, cy, cz, height, width, depth, rotation.
type Request struct {
	File      string
	Precision float32
	Labels    [][]float32
}

type Result struct {
	Error      string `json:",omitempty"`
	Points     int
	Area       float32
	LabelCount []int
}

var errInvalidLabels = errors.New("invalid labels")

// Cal answers one JSON request per JSON value read from r until r ends.
func Cal(r io.Reader, w io.Writer) error {
	decoder := json.NewDecoder(r)
	encoder := json.NewEncoder(w)
	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// the stream can not be resynchronised after a syntax error
			encoder.Encode(Result{Error: err.Error()})
			return err
		}
		res, err := measure(req)
		if err != nil {
			res = Result{Error: err.Error()}
		}
		if err := encoder.Encode(res); err != nil {
			return err
		}
	}
}

func measure(req Request) (Result, error) {
	for _, l := range req.Labels {
		if len(l) != 7 {
			return Result{}, errInvalidLabels
		}
	}
	cloud, err := tango.LoadFile(req.File)
	if err != nil {
		return Result{}, err
	}
	precision := req.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}

	p := pcd.NewPcd(cloud.NonZero())
	res := Result{
		Points:     p.PointCount(),
		Area:       p.XYArea(precision),
		LabelCount: []int{},
	}
	for _, l := range req.Labels {
		res.LabelCount = append(res.LabelCount, p.XYAreaPointCount(l[0], l[1], l[2], l[3], l[4], l[5], l[6]))
	}
	return res, nil
}

func main() {
	if err := Cal(os.Stdin, os.Stdout); err != nil {
		os.Exit(1)
	}
}
