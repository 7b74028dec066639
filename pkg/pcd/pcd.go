package pcd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	lzf "github.com/zhuyie/golzf"
)

var (
	ErrUnsupportPcdVersion   = errors.New("unsupport pcd version")
	ErrUnsupportPcdFieldSize = errors.New("unsupport pcd field size")
	ErrUnsupportPcdFieldType = errors.New("unsupport pcd field type")
	ErrUnsupportPcdDataType  = errors.New("unsupport pcd data type")
	ErrInvalidPcdFormat      = errors.New("invalid pcd format")
)

// PCD DATA section encodings.
const (
	DataASCII            = "ascii"
	DataBinary           = "binary"
	DataBinaryCompressed = "binary_compressed"
)

const (
	BinaryCompressedSize = 8
	pointSize            = 3 * 4

	// maxPoints bounds WIDTH*HEIGHT; compressed blocks store sizes as uint32.
	maxPoints = math.MaxInt32
	// maxPointBytes bounds the record size a header may declare.
	maxPointBytes = 1 << 16
	// maxInitialPoints caps the capacity reserved from header counts alone.
	maxInitialPoints = 1 << 16
	// lzfMaxRatio is above the best ratio LZF back references can reach.
	lzfMaxRatio = 100
)

type Pcd struct {
	PointCloud
}

func NewPcd(cloud *PointCloud) *Pcd {
	return &Pcd{PointCloud: *cloud}
}

// header holds the parsed PCD header lines that matter for x/y/z extraction.
type header struct {
	fields   map[string]int
	sizes    []int
	types    []string
	counts   []int
	width    int
	height   int
	dataType string
}

// pointSize is the byte size of one point record described by the header.
func (h *header) pointSize() int {
	var n int
	for i := range h.sizes {
		n += h.sizes[i] * h.counts[i]
	}
	return n
}

func DecodePcd(r io.Reader) (pcd *Pcd, err error) {
	bio := bufio.NewReader(r)
	h, err := readHeader(bio)
	if err != nil {
		return nil, err
	}

	capacity := h.width * h.height
	if capacity > maxInitialPoints {
		capacity = maxInitialPoints
	}
	pcd = &Pcd{
		PointCloud: PointCloud{
			Points: make([]Point, 0, capacity),
		},
	}
	switch h.dataType {
	case DataBinary:
		err = pcd.loadBinPoints(bio, h)
	case DataASCII:
		err = pcd.loadAsciiPoints(bio, h)
	case DataBinaryCompressed:
		err = pcd.loadBinCompressedPoints(bio, h)
	default:
		return nil, ErrUnsupportPcdDataType
	}
	if err != nil {
		return nil, err
	}
	return pcd, nil
}

func readHeader(bio *bufio.Reader) (*header, error) {
	var version string
	var err error
	for {
		version, err = bio.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "reading pcd version")
		}
		if !strings.HasPrefix(version, "#") {
			break
		}
	}
	if !strings.HasPrefix(version, "VERSION 0.7") && !strings.HasPrefix(version, "VERSION .7") {
		return nil, ErrUnsupportPcdVersion
	}

	headers := map[string][]string{}
	for {
		line, err := bio.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(ErrInvalidPcdFormat, "header ended before DATA")
		}
		h := strings.Fields(line)
		if len(h) < 1 {
			return nil, ErrInvalidPcdFormat
		}
		headers[h[0]] = h[1:]
		if h[0] == "DATA" {
			break
		}
	}

	h := &header{fields: map[string]int{}}
	for i, f := range headers["FIELDS"] {
		h.fields[f] = i
	}
	if h.sizes, err = getIntHeaders(headers, "SIZE"); err != nil {
		return nil, err
	}
	if len(h.fields) != len(h.sizes) {
		return nil, ErrInvalidPcdFormat
	}
	h.types = headers["TYPE"]
	if len(h.fields) != len(h.types) {
		return nil, ErrInvalidPcdFormat
	}
	if _, ok := headers["COUNT"]; ok {
		if h.counts, err = getIntHeaders(headers, "COUNT"); err != nil {
			return nil, err
		}
	} else {
		h.counts = make([]int, len(h.sizes))
		for i := range h.counts {
			h.counts[i] = 1
		}
	}
	if len(h.fields) != len(h.counts) {
		return nil, ErrInvalidPcdFormat
	}
	var recordSize int
	for i := range h.sizes {
		if h.sizes[i] < 1 || h.counts[i] < 1 || h.sizes[i] > maxPointBytes || h.counts[i] > maxPointBytes {
			return nil, errors.Wrap(ErrInvalidPcdFormat, "SIZE or COUNT out of range")
		}
		if recordSize += h.sizes[i] * h.counts[i]; recordSize > maxPointBytes {
			return nil, errors.Wrap(ErrInvalidPcdFormat, "point record too large")
		}
	}

	if len(headers["DATA"]) != 1 {
		return nil, ErrInvalidPcdFormat
	}
	h.dataType = strings.ToLower(headers["DATA"][0])

	if len(headers["WIDTH"]) != 1 || len(headers["HEIGHT"]) != 1 {
		return nil, ErrInvalidPcdFormat
	}
	if h.width, err = strconv.Atoi(headers["WIDTH"][0]); err != nil {
		return nil, errors.Wrap(ErrInvalidPcdFormat, "WIDTH")
	}
	if h.height, err = strconv.Atoi(headers["HEIGHT"][0]); err != nil {
		return nil, errors.Wrap(ErrInvalidPcdFormat, "HEIGHT")
	}
	if h.width < 0 || h.height < 0 || (h.height > 0 && h.width > maxPoints/h.height) {
		return nil, errors.Wrapf(ErrInvalidPcdFormat, "WIDTH %d HEIGHT %d", h.width, h.height)
	}
	return h, nil
}

// loadBinCompressedPoints reads an LZF block whose payload stores every
// field as one contiguous column (all x, then all y, ...).
func (pcd *Pcd) loadBinCompressedPoints(r io.Reader, h *header) (err error) {
	if err = checkXYZ(h); err != nil {
		return
	}
	sizes := make([]byte, BinaryCompressedSize)
	if _, err = io.ReadFull(r, sizes); err != nil {
		return errors.Wrap(ErrInvalidPcdFormat, "compressed block sizes")
	}
	compressedSize := binary.LittleEndian.Uint32(sizes[:4])
	uncompressedSize := binary.LittleEndian.Uint32(sizes[4:])
	n := h.width * h.height
	if int64(uncompressedSize) != int64(n)*int64(h.pointSize()) {
		return ErrInvalidPcdFormat
	}
	if uncompressedSize == 0 {
		return nil
	}
	if compressedSize == 0 || uint64(uncompressedSize) > uint64(compressedSize)*lzfMaxRatio {
		return errors.Wrapf(ErrInvalidPcdFormat, "compressed block of %d bytes can not hold %d", compressedSize, uncompressedSize)
	}

	// grows with the bytes actually present, not the declared size
	raw, err := io.ReadAll(io.LimitReader(r, int64(compressedSize)))
	if err != nil {
		return errors.Wrap(err, "reading compressed block")
	}
	if len(raw) != int(compressedSize) {
		return errors.Wrap(ErrInvalidPcdFormat, "compressed block is short")
	}
	uncompressed := make([]byte, uncompressedSize)
	got, err := lzf.Decompress(raw, uncompressed)
	if err != nil {
		return errors.Wrap(err, "lzf decompress")
	}
	if got != int(uncompressedSize) {
		return ErrInvalidPcdFormat
	}

	// column start of a field is the sum of the preceding columns
	columnAt := func(field string) int {
		var off int
		for i := 0; i < h.fields[field]; i++ {
			off += n * h.sizes[i] * h.counts[i]
		}
		return off
	}
	xo, yo, zo := columnAt("x"), columnAt("y"), columnAt("z")
	for i := 0; i < n; i++ {
		pcd.AddPoint(Point{
			X: float32At(uncompressed, xo+i*4),
			Y: float32At(uncompressed, yo+i*4),
			Z: float32At(uncompressed, zo+i*4),
		})
	}
	return nil
}

func (pcd *Pcd) loadBinPoints(r io.Reader, h *header) (err error) {
	if err = checkXYZ(h); err != nil {
		return
	}
	_, xb := getfieldIndexAndOffset(h, "x")
	_, yb := getfieldIndexAndOffset(h, "y")
	_, zb := getfieldIndexAndOffset(h, "z")

	bs := make([]byte, h.pointSize())
	for i := 0; i < h.width*h.height; i++ {
		if _, err = io.ReadFull(r, bs); err != nil {
			return errors.Wrapf(err, "reading point %d", i)
		}
		pcd.AddPoint(Point{
			X: float32At(bs, xb),
			Y: float32At(bs, yb),
			Z: float32At(bs, zb),
		})
	}
	return nil
}

func (pcd *Pcd) loadAsciiPoints(r *bufio.Reader, h *header) error {
	xi, _ := getfieldIndexAndOffset(h, "x")
	yi, _ := getfieldIndexAndOffset(h, "y")
	zi, _ := getfieldIndexAndOffset(h, "z")
	if !(xi >= 0 && yi >= 0 && zi >= 0) {
		return ErrInvalidPcdFormat
	}
	var l int
	for _, i := range h.counts {
		l += i
	}
	fs := make([]float64, 0, l)
	for {
		fs = fs[:0]
		err := AsciiGetFloats(r, &fs)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if len(fs) == 0 {
			continue
		}
		if len(fs) != l {
			return ErrInvalidPcdFormat
		}
		pcd.AddPoint(Point{
			X: float32(fs[xi]),
			Y: float32(fs[yi]),
			Z: float32(fs[zi]),
		})
	}
	return nil
}

// Encode writes the cloud as a binary PCD file.
func (pcd *Pcd) Encode(w io.Writer) error {
	return pcd.EncodeAs(w, DataBinary)
}

// EncodeAs writes the cloud as a PCD file with x/y/z float fields using the
// given DATA encoding.
func (pcd *Pcd) EncodeAs(w io.Writer, dataType string) error {
	var body []byte
	switch dataType {
	case DataASCII:
		body = pcd.asciiBody()
	case DataBinary:
		body = pcd.binaryBody()
	case DataBinaryCompressed:
		var err error
		if body, err = pcd.compressedBody(); err != nil {
			return err
		}
	default:
		return ErrUnsupportPcdDataType
	}

	byf := bytes.NewBuffer(make([]byte, 0, 200+len(body)))
	byf.WriteString("# .PCD v0.7 - Point Cloud Data file format\n")
	byf.WriteString("VERSION 0.7\n")
	byf.WriteString("FIELDS x y z\n")
	byf.WriteString("SIZE 4 4 4\n")
	byf.WriteString("TYPE F F F\n")
	byf.WriteString("COUNT 1 1 1\n")
	byf.WriteString(fmt.Sprintf("WIDTH %d\n", len(pcd.Points)))
	byf.WriteString("HEIGHT 1\n")
	byf.WriteString("VIEWPOINT 0 0 0 1 0 0 0\n")
	byf.WriteString(fmt.Sprintf("POINTS %d\n", len(pcd.Points)))
	byf.WriteString(fmt.Sprintf("DATA %s\n", dataType))
	byf.Write(body)
	_, err := w.Write(byf.Bytes())
	return err
}

func (pcd *Pcd) asciiBody() []byte {
	var b bytes.Buffer
	for _, p := range pcd.Points {
		b.WriteString(FormatCoord(p.X))
		b.WriteByte(' ')
		b.WriteString(FormatCoord(p.Y))
		b.WriteByte(' ')
		b.WriteString(FormatCoord(p.Z))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func (pcd *Pcd) binaryBody() []byte {
	b := make([]byte, 0, len(pcd.Points)*pointSize)
	for _, p := range pcd.Points {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(p.X))
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(p.Y))
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(p.Z))
	}
	return b
}

func (pcd *Pcd) compressedBody() ([]byte, error) {
	n := len(pcd.Points)
	raw := make([]byte, n*pointSize)
	for i, p := range pcd.Points {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(raw[(n+i)*4:], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(raw[(2*n+i)*4:], math.Float32bits(p.Z))
	}

	var compressed []byte
	if len(raw) > 0 {
		out := make([]byte, len(raw)+len(raw)/16+64)
		c, err := lzf.Compress(raw, out)
		if err != nil {
			return nil, errors.Wrap(err, "lzf compress")
		}
		compressed = out[:c]
	}

	body := make([]byte, BinaryCompressedSize, BinaryCompressedSize+len(compressed))
	binary.LittleEndian.PutUint32(body[:4], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(body[4:], uint32(len(raw)))
	return append(body, compressed...), nil
}

func (pcd *Pcd) PointCount() int {
	return len(pcd.Points)
}

// XYArea estimates the covered ground area in m2 by counting occupied cells
// of a grid with 1/precision sized cells.
func (pcd *Pcd) XYArea(precision float32) float32 {
	cells := make(map[[2]int]struct{})
	for _, p := range pcd.Points {
		cells[[2]int{int(p.X * precision), int(p.Y * precision)}] = struct{}{}
	}
	return float32(len(cells)) / precision / precision
}

// XYAreaPointCount counts the points inside a box centred on (cx, cy, cz),
// rotated by rx around the z axis. The box must be parallel to the xy plane.
func (pcd *Pcd) XYAreaPointCount(cx, cy, cz, height, width, depth, rx float32) int {
	var count int
	cx64, cy64 := float64(cx), float64(cy)
	width64, height64 := float64(width), float64(height)
	sin1, cos1 := math.Sincos(float64(rx))
	sin2, cos2 := math.Sincos(float64(rx) + math.Pi/2)
	for _, p := range pcd.Points {
		if p.Z > cz+depth/2 || p.Z < cz-depth/2 {
			continue
		}
		x64, y64 := float64(p.X), float64(p.Y)
		d1 := math.Abs(-sin1*x64 + cos1*y64 + (sin1*cx64 - cos1*cy64))
		d2 := math.Abs(-sin2*x64 + cos2*y64 + (sin2*cx64 - cos2*cy64))
		if d1 > height64/2 || d2 > width64/2 {
			continue
		}
		count++
	}
	return count
}

func getIntHeaders(headers map[string][]string, field string) ([]int, error) {
	vals := []int{}
	for _, v := range headers[field] {
		vi, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPcdFormat, "invalid int field %s", field)
		}
		vals = append(vals, vi)
	}
	return vals, nil
}

func checkXYZ(h *header) error {
	for _, f := range []string{"x", "y", "z"} {
		if err := checkfield(h, f); err != nil {
			return err
		}
	}
	return nil
}

func checkfield(h *header, field string) error {
	i, ok := h.fields[field]
	if !ok {
		return ErrInvalidPcdFormat
	}
	if h.sizes[i] != 4 {
		return ErrUnsupportPcdFieldSize
	}
	if h.types[i] != "F" {
		return ErrUnsupportPcdFieldType
	}
	return nil
}

// getfieldIndexAndOffset returns the value index and byte offset of a field
// within one point record, or idx -1 when the field is absent.
func getfieldIndexAndOffset(h *header, field string) (idx, begin int) {
	id, ok := h.fields[field]
	if !ok {
		return -1, 0
	}
	for i := 0; i < id; i++ {
		idx += h.counts[i]
		begin += h.sizes[i] * h.counts[i]
	}
	return idx, begin
}

func float32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off : off+4]))
}

func AsciiGetFloats(r *bufio.Reader, fs *[]float64) (err error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return
	}
	for _, r := range strings.Fields(line) {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return errors.Wrap(ErrInvalidPcdFormat, err.Error())
		}
		*fs = append(*fs, v)
	}
	return nil
}
