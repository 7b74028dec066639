package tango

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"tangodecode/pkg/pcd"
)

// Ext is the file extension of capture logs.
const Ext = ".tango"

var ErrUnsupportPointCloudFileType = errors.New("unsupport pointCloud fileType")

// Convert decodes a capture and writes its non-zero points to w as PCD.
func Convert(rs io.ReadSeeker, w io.Writer, dataType string, opts ...Option) (Stats, error) {
	d, err := NewDecoder(rs, opts...)
	if err != nil {
		return Stats{}, err
	}
	cloud, err := d.Decode()
	if err != nil {
		return d.Stats(), err
	}
	return d.Stats(), pcd.NewPcd(cloud.NonZero()).EncodeAs(w, dataType)
}

// LoadFile reads a point cloud from a capture or a PCD file, chosen by
// extension.
func LoadFile(path string) (*pcd.PointCloud, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case Ext:
		cloud, _, err := DecodeFile(path)
		return cloud, err
	case ".pcd":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		p, err := pcd.DecodePcd(f)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		return &p.PointCloud, nil
	default:
		return nil, errors.Wrap(ErrUnsupportPointCloudFileType, path)
	}
}
