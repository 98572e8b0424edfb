package asset

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/breastfem/internal/fsutil"
	"gonum.org/v1/gonum/spatial/r3"
)

var npyMagic = []byte("\x93NUMPY\x01\x00")

// npyPreamble is the magic string, version and header length field.
const npyPreamble = 10

// SeriesWriter streams a float64 array of shape (frames, nodes, 3) to a
// .npy file, one frame at a time. The frame count is only known at Close,
// so the header reserves room for any count and is rewritten then.
type SeriesWriter struct {
	f         *fsutil.AtomicFile
	w         *bufio.Writer
	nodes     int
	frames    int
	headerLen int
	row       []byte
}

// CreateSeries starts a series of nodes points per frame at path. Nothing is
// visible at path until Close.
func CreateSeries(path string, nodes int) (*SeriesWriter, error) {
	f, err := fsutil.CreateAtomic(path)
	if err != nil {
		return nil, err
	}
	s := &SeriesWriter{
		f:         f,
		w:         bufio.NewWriterSize(f, 1<<16),
		nodes:     nodes,
		headerLen: npyHeaderLen(nodes),
		row:       make([]byte, nodes*3*8),
	}
	if _, err := s.w.Write(npyHeader(0, nodes, s.headerLen)); err != nil {
		f.Abort()
		return nil, err
	}
	return s, nil
}

// Append writes one frame. It must have exactly nodes entries.
func (s *SeriesWriter) Append(frame []r3.Vec) error {
	if len(frame) != s.nodes {
		return fmt.Errorf("frame %d has %d nodes, series has %d", s.frames, len(frame), s.nodes)
	}
	for i, v := range frame {
		binary.LittleEndian.PutUint64(s.row[24*i:], math.Float64bits(v.X))
		binary.LittleEndian.PutUint64(s.row[24*i+8:], math.Float64bits(v.Y))
		binary.LittleEndian.PutUint64(s.row[24*i+16:], math.Float64bits(v.Z))
	}
	if _, err := s.w.Write(s.row); err != nil {
		return err
	}
	s.frames++
	return nil
}

// Frames is the number of frames appended so far.
func (s *SeriesWriter) Frames() int { return s.frames }

// Close writes the final header and moves the file into place.
func (s *SeriesWriter) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Abort()
		return err
	}
	if _, err := s.f.WriteAt(npyHeader(s.frames, s.nodes, s.headerLen), 0); err != nil {
		s.f.Abort()
		return err
	}
	return s.f.Commit()
}

// Abort discards the series.
func (s *SeriesWriter) Abort() { s.f.Abort() }

func npyDict(frames, nodes int) string {
	return fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d, %d, 3), }", frames, nodes)
}

// npyHeaderLen is the padded header size that fits any frame count.
func npyHeaderLen(nodes int) int {
	n := npyPreamble + len(npyDict(math.MaxInt64, nodes)) + 1
	return (n + 63) / 64 * 64
}

// npyHeader renders the full header padded with spaces to total bytes.
func npyHeader(frames, nodes, total int) []byte {
	dict := npyDict(frames, nodes)
	var b bytes.Buffer
	b.Write(npyMagic)
	binary.Write(&b, binary.LittleEndian, uint16(total-npyPreamble))
	b.WriteString(dict)
	b.WriteString(strings.Repeat(" ", total-npyPreamble-len(dict)-1))
	b.WriteByte('\n')
	return b.Bytes()
}

var shapePattern = regexp.MustCompile(`'shape': \((\d+), (\d+), 3\)`)

// Series is a fully loaded series.
type Series struct {
	Frames, Nodes int
	Data          []float64
}

// At returns node n of frame k.
func (s *Series) At(k, n int) r3.Vec {
	i := (k*s.Nodes + n) * 3
	return r3.Vec{X: s.Data[i], Y: s.Data[i+1], Z: s.Data[i+2]}
}

// ReadSeries loads a file written by SeriesWriter.
func ReadSeries(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	pre := make([]byte, npyPreamble)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, err
	}
	if !bytes.Equal(pre[:8], npyMagic) {
		return nil, errors.New("not a version 1.0 .npy file")
	}
	header := make([]byte, binary.LittleEndian.Uint16(pre[8:]))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if !bytes.Contains(header, []byte("'descr': '<f8'")) {
		return nil, errors.New("series is not little-endian float64")
	}
	m := shapePattern.FindSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("unexpected shape in header %q", header)
	}
	s := &Series{}
	s.Frames, _ = strconv.Atoi(string(m[1]))
	s.Nodes, _ = strconv.Atoi(string(m[2]))
	s.Data = make([]float64, s.Frames*s.Nodes*3)
	if err := binary.Read(r, binary.LittleEndian, s.Data); err != nil {
		return nil, fmt.Errorf("reading series data: %w", err)
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, errors.New("trailing data after series")
	}
	return s, nil
}
