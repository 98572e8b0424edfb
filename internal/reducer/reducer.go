// Package reducer turns the per-frame solver output of one job into its
// animation assets: the skin surface at rest and the displacement of every
// surface node over time.
//
// Frames are streamed. Only the frame being read is held in memory; rows go
// straight to the series file.
package reducer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/breastfem/internal/asset"
	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/vtk"
	"gonum.org/v1/gonum/spatial/r3"
)

// OutputDir is the job subdirectory holding solver output and assets.
const OutputDir = "output"

// Asset describes the files written for a job.
type Asset struct {
	Topology     string
	Series       string
	Frames       int
	SurfaceNodes int
	Faces        int
}

// FramePath is the solver's output file for frame k.
func FramePath(dir, base string, k int) string {
	return filepath.Join(dir, OutputDir, base+"."+strconv.Itoa(k)+".vtk")
}

// Reduce reads output/<base>.<k>.vtk for k = 0, 1, ... and writes
// output/<base>.obj and output/<base>.npy. Every failure is a
// fault.PostProcessFailure; the assets are only published when all frames
// reduce cleanly.
func Reduce(ctx context.Context, dir, base string) (*Asset, error) {
	a, err := reduce(ctx, dir, base)
	if err != nil {
		return nil, fault.PostProcess(base, err)
	}
	return a, nil
}

func reduce(ctx context.Context, dir, base string) (*Asset, error) {
	logger := ctxlog.FromContext(ctx)

	count, err := countFrames(dir, base)
	if err != nil {
		return nil, err
	}

	first, err := vtk.ReadFile(FramePath(dir, base, 0), vtk.Options{})
	if err != nil {
		return nil, err
	}
	topo, err := Surface(first)
	if err != nil {
		return nil, fmt.Errorf("%w: frame 0: %v", fault.ErrMalformedFrame, err)
	}

	a := &Asset{
		Topology:     filepath.Join(dir, OutputDir, base+".obj"),
		Series:       filepath.Join(dir, OutputDir, base+".npy"),
		SurfaceNodes: len(topo.Vertices),
		Faces:        len(topo.Faces),
	}
	series, err := asset.CreateSeries(a.Series, len(topo.Vertices))
	if err != nil {
		return nil, err
	}
	row := make([]r3.Vec, len(topo.Vertices))
	nPoints := len(first.Points)

	if err := series.Append(gather(row, first.Displacement, topo.PointIndex)); err != nil {
		series.Abort()
		return nil, err
	}
	first = nil

	for k := 1; k < count; k++ {
		if err := ctx.Err(); err != nil {
			series.Abort()
			return nil, err
		}
		f, err := vtk.ReadFile(FramePath(dir, base, k), vtk.Options{SkipCells: true})
		if err != nil {
			series.Abort()
			return nil, err
		}
		if len(f.Points) != nPoints {
			series.Abort()
			return nil, fmt.Errorf("%w: frame %d has %d points, frame 0 has %d", fault.ErrMalformedFrame, k, len(f.Points), nPoints)
		}
		if err := series.Append(gather(row, f.Displacement, topo.PointIndex)); err != nil {
			series.Abort()
			return nil, err
		}
	}

	if err := topo.WriteOBJFile(a.Topology); err != nil {
		series.Abort()
		return nil, err
	}
	a.Frames = series.Frames()
	if err := series.Close(); err != nil {
		return nil, err
	}
	logger.Info("🎞️ Reduced solver output.", "frames", a.Frames, "surfaceNodes", a.SurfaceNodes, "faces", a.Faces)
	return a, nil
}

func gather(row, disp []r3.Vec, index []int) []r3.Vec {
	for i, p := range index {
		row[i] = disp[p]
	}
	return row
}

// countFrames returns the number of frames and checks that they are
// numbered 0..n-1 without gaps.
func countFrames(dir, base string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(dir, OutputDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: no %s directory in %s", fault.ErrMissingFrame, OutputDir, dir)
		}
		return 0, err
	}
	prefix := base + "."
	var indices []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".vtk") {
			continue
		}
		k, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".vtk"))
		if err != nil || k < 0 {
			continue
		}
		indices = append(indices, k)
	}
	if len(indices) == 0 {
		return 0, fmt.Errorf("%w: no frames for %s", fault.ErrMissingFrame, base)
	}
	slices.Sort(indices)
	for i, k := range indices {
		if k != i {
			return 0, fmt.Errorf("%w: frame %d of %s", fault.ErrMissingFrame, i, base)
		}
	}
	return len(indices), nil
}
