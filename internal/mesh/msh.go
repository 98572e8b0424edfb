package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// gmsh element type codes that map onto FEBio shells and solids. Points and
// lines are skipped.
var mshTypes = map[int]struct {
	kind  Kind
	order int
}{
	2:  {Surface, 1},
	9:  {Surface, 2},
	4:  {Solid, 1},
	11: {Solid, 2},
}

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (r *lineReader) next() ([]string, error) {
	for r.sc.Scan() {
		r.line++
		if f := strings.Fields(r.sc.Text()); len(f) > 0 {
			return f, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

func (r *lineReader) ints(want int) ([]int, error) {
	f, err := r.next()
	if err != nil {
		return nil, err
	}
	if len(f) < want {
		return nil, fmt.Errorf("line %d: expected %d integers, got %d fields", r.line, want, len(f))
	}
	out := make([]int, len(f))
	for i, s := range f {
		if out[i], err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
	}
	return out, nil
}

// maxPrealloc caps slice capacity taken from header counts. Larger meshes
// still load, they just grow by append.
const maxPrealloc = 1 << 20

// count checks a count read from the header on the current line.
func (r *lineReader) count(v int, what string) (int, error) {
	if v < 0 {
		return 0, fmt.Errorf("line %d: negative %s count %d", r.line, what, v)
	}
	return v, nil
}

// ReadMSH parses a gmsh MSH 4.1 ASCII file. Node and element tags are kept
// exactly as gmsh wrote them.
func ReadMSH(r io.Reader) (*RawMesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lr := &lineReader{sc: sc}

	m := &RawMesh{}
	sawFormat := false
	for {
		f, err := lr.next()
		if err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, err
		}
		section := f[0]
		if !strings.HasPrefix(section, "$") || strings.HasPrefix(section, "$End") {
			return nil, fmt.Errorf("line %d: expected section header, got %q", lr.line, section)
		}

		switch section {
		case "$MeshFormat":
			if err := readFormat(lr); err != nil {
				return nil, err
			}
			sawFormat = true
		case "$Nodes":
			if err := readNodes(lr, m); err != nil {
				return nil, fmt.Errorf("reading nodes: %w", err)
			}
		case "$Elements":
			if err := readElements(lr, m); err != nil {
				return nil, fmt.Errorf("reading elements: %w", err)
			}
		default:
			if err := skipSection(lr, section); err != nil {
				return nil, err
			}
			continue
		}
		if err := expectEnd(lr, section); err != nil {
			return nil, err
		}
	}

	if !sawFormat {
		return nil, fmt.Errorf("missing $MeshFormat section")
	}
	return m, nil
}

func readFormat(lr *lineReader) error {
	f, err := lr.next()
	if err != nil {
		return err
	}
	if len(f) < 2 || !strings.HasPrefix(f[0], "4") {
		return fmt.Errorf("line %d: unsupported MSH version %q, want 4.x", lr.line, strings.Join(f, " "))
	}
	if f[1] != "0" {
		return fmt.Errorf("line %d: binary MSH files are not supported", lr.line)
	}
	return nil
}

func readNodes(lr *lineReader, m *RawMesh) error {
	hdr, err := lr.ints(4)
	if err != nil {
		return err
	}
	numBlocks, err := lr.count(hdr[0], "node block")
	if err != nil {
		return err
	}
	numNodes, err := lr.count(hdr[1], "node")
	if err != nil {
		return err
	}
	m.Nodes = make([]Node, 0, min(numNodes, maxPrealloc))

	for b := 0; b < numBlocks; b++ {
		bh, err := lr.ints(4)
		if err != nil {
			return err
		}
		count, err := lr.count(bh[3], "block node")
		if err != nil {
			return err
		}
		tags := make([]int, 0, min(count, maxPrealloc))
		for range count {
			t, err := lr.ints(1)
			if err != nil {
				return err
			}
			tags = append(tags, t[0])
		}
		for i := range tags {
			f, err := lr.next()
			if err != nil {
				return err
			}
			if len(f) < 3 {
				return fmt.Errorf("line %d: expected coordinates, got %d fields", lr.line, len(f))
			}
			var xyz [3]float64
			for j := range xyz {
				if xyz[j], err = strconv.ParseFloat(f[j], 64); err != nil {
					return fmt.Errorf("line %d: %w", lr.line, err)
				}
			}
			m.Nodes = append(m.Nodes, Node{ID: tags[i], Pos: r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}})
		}
	}
	if len(m.Nodes) != numNodes {
		return fmt.Errorf("header announced %d nodes, blocks held %d", numNodes, len(m.Nodes))
	}
	return nil
}

func readElements(lr *lineReader, m *RawMesh) error {
	hdr, err := lr.ints(4)
	if err != nil {
		return err
	}
	numBlocks, err := lr.count(hdr[0], "element block")
	if err != nil {
		return err
	}

	for b := 0; b < numBlocks; b++ {
		bh, err := lr.ints(4)
		if err != nil {
			return err
		}
		typ := bh[2]
		count, err := lr.count(bh[3], "block element")
		if err != nil {
			return err
		}
		info, keep := mshTypes[typ]
		want := 0
		if keep {
			want = ShapeOf(info.kind, info.order).NodeCount()
		}
		for i := 0; i < count; i++ {
			row, err := lr.ints(1)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			if len(row)-1 != want {
				return fmt.Errorf("line %d: element type %d needs %d nodes, got %d", lr.line, typ, want, len(row)-1)
			}
			m.Elements = append(m.Elements, Element{
				ID:    row[0],
				Nodes: row[1:],
				Kind:  info.kind,
				Order: info.order,
			})
		}
	}
	return nil
}

func skipSection(lr *lineReader, section string) error {
	end := "$End" + strings.TrimPrefix(section, "$")
	for {
		f, err := lr.next()
		if err != nil {
			return fmt.Errorf("section %s not terminated: %w", section, err)
		}
		if f[0] == end {
			return nil
		}
	}
}

func expectEnd(lr *lineReader, section string) error {
	f, err := lr.next()
	if err != nil {
		return err
	}
	if end := "$End" + strings.TrimPrefix(section, "$"); f[0] != end {
		return fmt.Errorf("line %d: expected %s, got %q", lr.line, end, f[0])
	}
	return nil
}
