package pcd

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// CSVHeader names the columns the way ParaView's CSV reader expects them.
var CSVHeader = []string{"x coord", "y coord", "z coord"}

// Sink consumes a fully decoded cloud.
type Sink interface {
	Write(cloud *PointCloud) error
}

// TextSink writes one "x y z" line per non-zero point.
type TextSink struct {
	Path string
}

func (s TextSink) Write(cloud *PointCloud) error {
	return createFile(s.Path, func(f *os.File) error {
		return WriteText(f, cloud)
	})
}

// CSVSink writes a header row then one "x,y,z" row per non-zero point.
type CSVSink struct {
	Path string
}

func (s CSVSink) Write(cloud *PointCloud) error {
	return createFile(s.Path, func(f *os.File) error {
		return WriteCSV(f, cloud)
	})
}

// PCDSink writes the non-zero points as a PCD v0.7 file.
type PCDSink struct {
	Path     string
	DataType string
}

func (s PCDSink) Write(cloud *PointCloud) error {
	dataType := s.DataType
	if dataType == "" {
		dataType = DataBinary
	}
	return createFile(s.Path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := NewPcd(cloud.NonZero()).EncodeAs(w, dataType); err != nil {
			return err
		}
		return w.Flush()
	})
}

// WriteAll hands the cloud to every sink in order and stops at the first
// failure.
func WriteAll(cloud *PointCloud, sinks ...Sink) error {
	for _, s := range sinks {
		if err := s.Write(cloud); err != nil {
			return err
		}
	}
	return nil
}

func WriteText(w io.Writer, cloud *PointCloud) error {
	bw := bufio.NewWriter(w)
	for _, p := range cloud.Points {
		if p.IsZero() {
			continue
		}
		bw.WriteString(FormatCoord(p.X))
		bw.WriteByte(' ')
		bw.WriteString(FormatCoord(p.Y))
		bw.WriteByte(' ')
		bw.WriteString(FormatCoord(p.Z))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func WriteCSV(w io.Writer, cloud *PointCloud) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	row := make([]string, 3)
	for _, p := range cloud.Points {
		if p.IsZero() {
			continue
		}
		row[0], row[1], row[2] = FormatCoord(p.X), FormatCoord(p.Y), FormatCoord(p.Z)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCoord renders v with the fewest digits that read back as the same
// float32, never in exponent form.
func FormatCoord(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
