package pcd

import (
	"os"
	"path/filepath"
	"strings"
)

// Point is a single depth return in device coordinates.
type Point struct {
	X, Y, Z float32
}

// IsZero reports whether all three coordinates are exactly zero, the
// sensor's marker for a pixel without a depth return.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0
}

// PointCloud is an append-only, ordered list of points.
type PointCloud struct {
	Points []Point
}

func (p *PointCloud) AddPoint(pt Point) {
	p.Points = append(p.Points, pt)
}

func (p *PointCloud) AddPoints(pts ...Point) {
	p.Points = append(p.Points, pts...)
}

func (p *PointCloud) Len() int {
	return len(p.Points)
}

// NonZero returns a new cloud holding every point that is not IsZero, in
// the original order.
func (p *PointCloud) NonZero() *PointCloud {
	out := &PointCloud{Points: make([]Point, 0, len(p.Points))}
	for _, pt := range p.Points {
		if pt.IsZero() {
			continue
		}
		out.AddPoint(pt)
	}
	return out
}

// CSVPath derives the CSV companion of an output path: the file name up to
// its first '.' with ".csv" appended, in the same directory.
func CSVPath(path string) string {
	dir, base := filepath.Split(path)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return dir + base + ".csv"
}

// createFile opens path for writing and hands it to write, closing it
// afterwards. The first error wins.
func createFile(path string, write func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
