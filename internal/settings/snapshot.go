package settings

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/breastfem/internal/fsutil"
)

// SnapshotSuffix is appended to a job's base name for the resolved settings file.
const SnapshotSuffix = "_all_settings.hcl"

// Snapshot renders s as a complete settings file with every value spelled
// out. Loading the result yields s again.
func Snapshot(s *Settings) []byte {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(s, f.Body())
	return hclwrite.Format(f.Bytes())
}

// WriteSnapshot writes Snapshot(s) to path.
func WriteSnapshot(path string, s *Settings) error {
	if err := fsutil.WriteFileAtomic(path, Snapshot(s)); err != nil {
		return fmt.Errorf("failed to write settings snapshot: %w", err)
	}
	return nil
}

// WriteDefault writes the default settings to path, as a starting point for
// a new model.
func WriteDefault(path string) error {
	s := Default()
	return WriteSnapshot(path, &s)
}
