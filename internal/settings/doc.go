// Package settings is the typed configuration tree of one breast model: the
// mesh and geometry (model), the tissue parameters (material) and the two
// simulation steps (simulation).
//
// Settings files are HCL. A file only needs to mention what differs from
// Default; LoadFile overlays it on the defaults and rejects unknown names.
// Snapshot writes the resolved tree back out so that every job directory
// records exactly what it was built from:
//
//	model {
//	  mesh {
//	    order = 1
//	  }
//	}
//	simulation {
//	  parabolic_jump {
//	    max_height = 0.02
//	  }
//	}
package settings
