// Package vtk reads the legacy ASCII VTK unstructured grids the solver writes,
// one file per output frame.
package vtk

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vk/breastfem/internal/fault"
	"gonum.org/v1/gonum/spatial/r3"
)

// VTK cell type codes.
const (
	Triangle          = 5
	Tetra             = 10
	QuadraticTriangle = 22
	QuadraticTetra    = 24
)

// DisplacementArray is the point data array holding nodal displacements.
const DisplacementArray = "displacement"

// IsShell reports whether a cell type is a surface triangle.
func IsShell(cellType int) bool { return cellType == Triangle || cellType == QuadraticTriangle }

type Cell struct {
	Type  int
	Nodes []int
}

// Frame is one output state. Point i is the solver node with id i+1.
type Frame struct {
	Points       []r3.Vec
	Cells        []Cell
	Displacement []r3.Vec
}

// Options tunes what Read keeps.
type Options struct {
	// SkipCells parses but drops connectivity. Frames after the first only
	// contribute displacements.
	SkipCells bool
}

// ReadFile reads one frame file.
func ReadFile(path string, opts Options) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	frame, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// Read parses a frame. Any structural problem is fault.ErrMalformedFrame.
func Read(r io.Reader, opts Options) (*Frame, error) {
	p := newParser(r)
	frame, err := p.frame(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fault.ErrMalformedFrame, err)
	}
	return frame, nil
}

type parser struct {
	br     *bufio.Reader
	sc     *bufio.Scanner
	peeked string
}

func newParser(r io.Reader) *parser {
	return &parser{br: bufio.NewReaderSize(r, 1<<16)}
}

// header reads the four line-oriented header lines.
func (p *parser) header() error {
	lines := make([]string, 4)
	for i := range lines {
		line, err := p.br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return fmt.Errorf("truncated header")
		}
		lines[i] = strings.TrimSpace(line)
	}
	if !strings.HasPrefix(lines[0], "# vtk DataFile") {
		return fmt.Errorf("not a legacy VTK file")
	}
	if lines[2] != "ASCII" {
		return fmt.Errorf("unsupported encoding %q", lines[2])
	}
	if lines[3] != "DATASET UNSTRUCTURED_GRID" {
		return fmt.Errorf("unsupported dataset %q", lines[3])
	}
	p.sc = bufio.NewScanner(p.br)
	p.sc.Split(bufio.ScanWords)
	return nil
}

func (p *parser) next() (string, bool) {
	if p.peeked != "" {
		w := p.peeked
		p.peeked = ""
		return w, true
	}
	if !p.sc.Scan() {
		return "", false
	}
	return p.sc.Text(), true
}

func (p *parser) unread(w string) { p.peeked = w }

func (p *parser) word(what string) (string, error) {
	w, ok := p.next()
	if !ok {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("unexpected end of file reading %s", what)
	}
	return w, nil
}

func (p *parser) int(what string) (int, error) {
	w, err := p.word(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", what, w)
	}
	return n, nil
}

// maxPrealloc caps slice capacity taken from counts in the file. Larger
// frames still load, they just grow by append.
const maxPrealloc = 1 << 20

// count reads a count and rejects negative values.
func (p *parser) count(what string) (int, error) {
	n, err := p.int(what)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative %s %d", what, n)
	}
	return n, nil
}

func (p *parser) float(what string) (float64, error) {
	w, err := p.word(what)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(w, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", what, w)
	}
	return f, nil
}

func (p *parser) vecs(n int, what string) ([]r3.Vec, error) {
	out := make([]r3.Vec, 0, min(n, maxPrealloc))
	for range n {
		var c [3]float64
		for j := range c {
			f, err := p.float(what)
			if err != nil {
				return nil, err
			}
			c[j] = f
		}
		out = append(out, r3.Vec{X: c[0], Y: c[1], Z: c[2]})
	}
	return out, nil
}

func (p *parser) skip(n int, what string) error {
	for range n {
		if _, err := p.word(what); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) frame(opts Options) (*Frame, error) {
	if err := p.header(); err != nil {
		return nil, err
	}
	f := &Frame{}
	var cellTypes []int
	section := ""
	sectionSize := 0

	for {
		kw, ok := p.next()
		if !ok {
			break
		}
		switch strings.ToUpper(kw) {
		case "POINTS":
			n, err := p.count("point count")
			if err != nil {
				return nil, err
			}
			if _, err := p.word("point type"); err != nil {
				return nil, err
			}
			if f.Points, err = p.vecs(n, "point coordinate"); err != nil {
				return nil, err
			}
		case "CELLS":
			if err := p.cells(f, opts.SkipCells); err != nil {
				return nil, err
			}
		case "CELL_TYPES":
			n, err := p.count("cell type count")
			if err != nil {
				return nil, err
			}
			cellTypes = make([]int, 0, min(n, maxPrealloc))
			for range n {
				t, err := p.int("cell type")
				if err != nil {
					return nil, err
				}
				cellTypes = append(cellTypes, t)
			}
		case "POINT_DATA", "CELL_DATA":
			n, err := p.count("data size")
			if err != nil {
				return nil, err
			}
			section, sectionSize = strings.ToUpper(kw), n
		case "VECTORS", "NORMALS":
			if err := p.vectors(f, section, sectionSize); err != nil {
				return nil, err
			}
		case "SCALARS":
			if err := p.scalars(sectionSize); err != nil {
				return nil, err
			}
		case "TENSORS":
			if _, err := p.word("array name"); err != nil {
				return nil, err
			}
			if _, err := p.word("data type"); err != nil {
				return nil, err
			}
			if err := p.skip(9*sectionSize, "tensor component"); err != nil {
				return nil, err
			}
		case "FIELD":
			if err := p.field(f, section); err != nil {
				return nil, err
			}
		case "METADATA":
			p.metadata()
		default:
			return nil, fmt.Errorf("unexpected keyword %q", kw)
		}
	}
	if err := p.sc.Err(); err != nil {
		return nil, err
	}

	if f.Points == nil {
		return nil, fmt.Errorf("no POINTS section")
	}
	if !opts.SkipCells {
		if len(cellTypes) != len(f.Cells) {
			return nil, fmt.Errorf("%d cells but %d cell types", len(f.Cells), len(cellTypes))
		}
		for i := range f.Cells {
			f.Cells[i].Type = cellTypes[i]
		}
	}
	if f.Displacement == nil {
		return nil, fmt.Errorf("no %s point data", DisplacementArray)
	}
	if len(f.Displacement) != len(f.Points) {
		return nil, fmt.Errorf("%d displacements for %d points", len(f.Displacement), len(f.Points))
	}
	return f, nil
}

func (p *parser) cells(f *Frame, skip bool) error {
	n, err := p.count("cell count")
	if err != nil {
		return err
	}
	if _, err := p.int("cell list size"); err != nil {
		return err
	}
	if !skip {
		f.Cells = make([]Cell, 0, min(n, maxPrealloc))
	}
	for i := range n {
		k, err := p.count("cell node count")
		if err != nil {
			return err
		}
		if skip {
			if err := p.skip(k, "cell node"); err != nil {
				return err
			}
			continue
		}
		nodes := make([]int, 0, min(k, maxPrealloc))
		for range k {
			node, err := p.int("cell node")
			if err != nil {
				return err
			}
			if node < 0 {
				return fmt.Errorf("cell %d references negative point %d", i, node)
			}
			nodes = append(nodes, node)
		}
		f.Cells = append(f.Cells, Cell{Nodes: nodes})
	}
	return nil
}

func (p *parser) vectors(f *Frame, section string, size int) error {
	name, err := p.word("array name")
	if err != nil {
		return err
	}
	if _, err := p.word("data type"); err != nil {
		return err
	}
	if section == "POINT_DATA" && strings.EqualFold(name, DisplacementArray) {
		f.Displacement, err = p.vecs(size, "displacement")
		return err
	}
	return p.skip(3*size, "vector component")
}

func (p *parser) scalars(size int) error {
	if _, err := p.word("array name"); err != nil {
		return err
	}
	if _, err := p.word("data type"); err != nil {
		return err
	}
	ncomp := 1
	w, err := p.word("scalar data")
	if err != nil {
		return err
	}
	if n, convErr := strconv.Atoi(w); convErr == nil {
		if n < 0 {
			return fmt.Errorf("negative scalar component count %d", n)
		}
		ncomp = n
		if w, err = p.word("scalar data"); err != nil {
			return err
		}
	}
	if strings.ToUpper(w) == "LOOKUP_TABLE" {
		if _, err := p.word("lookup table name"); err != nil {
			return err
		}
	} else {
		p.unread(w)
	}
	return p.skip(ncomp*size, "scalar value")
}

func (p *parser) field(f *Frame, section string) error {
	if _, err := p.word("field name"); err != nil {
		return err
	}
	arrays, err := p.count("field array count")
	if err != nil {
		return err
	}
	for range arrays {
		name, err := p.word("field array name")
		if err != nil {
			return err
		}
		ncomp, err := p.count("field array components")
		if err != nil {
			return err
		}
		ntuples, err := p.count("field array tuples")
		if err != nil {
			return err
		}
		if _, err := p.word("field array type"); err != nil {
			return err
		}
		if section == "POINT_DATA" && ncomp == 3 && strings.EqualFold(name, DisplacementArray) {
			if f.Displacement, err = p.vecs(ntuples, "displacement"); err != nil {
				return err
			}
			continue
		}
		if err := p.skip(ncomp*ntuples, "field value"); err != nil {
			return err
		}
	}
	return nil
}

// metadata skips a METADATA block. It runs to the next section keyword.
func (p *parser) metadata() {
	for {
		w, ok := p.next()
		if !ok {
			return
		}
		switch strings.ToUpper(w) {
		case "POINTS", "CELLS", "CELL_TYPES", "POINT_DATA", "CELL_DATA", "VECTORS", "SCALARS", "FIELD", "TENSORS", "NORMALS":
			p.unread(w)
			return
		}
	}
}
