package settings

import (
	"errors"
	"fmt"
)

// Validate reports every structural problem in s that would make the model
// impossible to build. Simulation timing is checked by the descriptor builder.
func (s *Settings) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	g := s.Model.Geometry
	check(g.Radius > 0, "model.geometry.radius must be positive, got %g", g.Radius)
	check(g.ThicknessChestWall > 0, "model.geometry.thickness_chest_wall must be positive, got %g", g.ThicknessChestWall)
	check(g.LeftRelativePositionEllipse > 0, "model.geometry.left_relative_position_ellipse must be positive, got %g", g.LeftRelativePositionEllipse)
	check(g.RightRelativePositionEllipse >= 0, "model.geometry.right_relative_position_ellipse must not be negative, got %g", g.RightRelativePositionEllipse)
	check(g.CenterRelativePositionEllipse >= 0, "model.geometry.center_relative_position_ellipse must not be negative, got %g", g.CenterRelativePositionEllipse)

	m := s.Model.Mesh
	check(m.Order == 1 || m.Order == 2, "model.mesh.order must be 1 or 2, got %d", m.Order)

	tissues := []struct {
		name string
		t    Tissue
	}{{"skin", s.Material.Skin}, {"adipose", s.Material.Adipose}, {"glandular", s.Material.Glandular}}
	for _, tc := range tissues {
		check(tc.t.Density > 0, "material.%s.density must be positive, got %g", tc.name, tc.t.Density)
		check(tc.t.BulkModulus > 0, "material.%s.bulk_modulus must be positive, got %g", tc.name, tc.t.BulkModulus)
	}

	if tu := s.Material.Tumor; tu.Enabled {
		check(len(tu.Position) == 3, "material.tumor.position must have 3 components, got %d", len(tu.Position))
		check(tu.Radius > 0, "material.tumor.radius must be positive, got %g", tu.Radius)
		check(tu.Density > 0, "material.tumor.density must be positive, got %g", tu.Density)
	}

	o := s.Simulation.Output
	check(o.VTK, "simulation.output.vtk must be enabled, the reducer reads vtk frames")
	check(o.Displacement, "simulation.output.displacement must be enabled, the reducer needs it")

	return errors.Join(errs...)
}
