package feb

import (
	"fmt"

	"github.com/vk/breastfem/internal/fsutil"
)

// WriteFile encodes root to path. The previous file, if any, stays in place
// until the new one is complete.
func WriteFile(path string, root *Element) error {
	f, err := fsutil.CreateAtomic(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, root); err != nil {
		f.Abort()
		return err
	}
	return f.Commit()
}
