// Package asset writes the animation assets of a job: the skin surface as a
// Wavefront OBJ and the displacement time series as a NumPy .npy array.
package asset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/vk/breastfem/internal/fsutil"
	"gonum.org/v1/gonum/spatial/r3"
)

// Topology is the surface mesh at rest. Vertex i is solver point
// PointIndex[i]; faces index vertices from 0.
type Topology struct {
	Vertices   []r3.Vec
	PointIndex []int
	Faces      [][3]int
}

// WriteOBJ writes t in OBJ form. OBJ indices start at 1.
func (t *Topology) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d vertices, %d faces\n", len(t.Vertices), len(t.Faces))
	buf := make([]byte, 0, 64)
	for _, v := range t.Vertices {
		buf = append(buf[:0], 'v')
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, c, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	for _, f := range t.Faces {
		if _, err := fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteOBJFile writes t to path atomically.
func (t *Topology) WriteOBJFile(path string) error {
	f, err := fsutil.CreateAtomic(path)
	if err != nil {
		return err
	}
	if err := t.WriteOBJ(f); err != nil {
		f.Abort()
		return err
	}
	return f.Commit()
}
