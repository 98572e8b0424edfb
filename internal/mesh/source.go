package mesh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/settings"
)

// Request identifies the mesh a job needs.
type Request struct {
	// SettingsPath is the settings file the job was compiled from.
	SettingsPath string
	Mesh         settings.Mesh
	Geometry     settings.Geometry
}

// Source produces the raw mesh for a job.
type Source interface {
	Load(ctx context.Context, req Request) (*RawMesh, error)
}

// FileSource loads gmsh files written by the external mesher.
type FileSource struct{}

// Path resolves the mesh file for req: model.mesh.file relative to the
// settings file, or "<base>.msh" next to it.
func (FileSource) Path(req Request) string {
	dir := filepath.Dir(req.SettingsPath)
	if req.Mesh.File != "" {
		if filepath.IsAbs(req.Mesh.File) {
			return req.Mesh.File
		}
		return filepath.Join(dir, req.Mesh.File)
	}
	base := strings.TrimSuffix(filepath.Base(req.SettingsPath), filepath.Ext(req.SettingsPath))
	return filepath.Join(dir, base+".msh")
}

func (s FileSource) Load(ctx context.Context, req Request) (*RawMesh, error) {
	logger := ctxlog.FromContext(ctx)
	path := s.Path(req)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh file: %w", err)
	}
	defer f.Close()

	m, err := ReadMSH(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read mesh file %s: %w", path, err)
	}
	logger.Debug("Mesh loaded.", "path", path, "nodes", len(m.Nodes), "elements", len(m.Elements))
	return m, nil
}
