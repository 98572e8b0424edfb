package settings

// Settings is the root of the configuration tree. The hcl tags describe the
// settings file layout, the feb tags name the matching FEBio parameter when a
// block is serialized verbatim into the solver input.
type Settings struct {
	Model      Model      `hcl:"model,block"`
	Material   Material   `hcl:"material,block"`
	Simulation Simulation `hcl:"simulation,block"`
}

type Model struct {
	Mesh     Mesh     `hcl:"mesh,block"`
	Geometry Geometry `hcl:"geometry,block"`
}

// Mesh describes the mesh the external mesher produced for this geometry.
// File is resolved relative to the settings file; empty means "<base>.msh".
type Mesh struct {
	File     string  `hcl:"file,optional"`
	Size     float64 `hcl:"ls,optional"`
	Density  float64 `hcl:"density,optional"`
	Optimize bool    `hcl:"optimize,optional"`
	Order    int     `hcl:"order,optional"`
}

// ElementTypes returns the FEBio surface and volume element names for the
// configured order.
func (m Mesh) ElementTypes() (surface, volume string) {
	if m.Order == 2 {
		return "tri6", "tet10"
	}
	return "tri3", "tet4"
}

// Geometry holds the revolved breast profile. The ellipse positions are
// relative to Radius.
type Geometry struct {
	Radius                        float64 `hcl:"radius,optional"`
	ThicknessChestWall            float64 `hcl:"thickness_chest_wall,optional"`
	LeftRelativePositionEllipse   float64 `hcl:"left_relative_position_ellipse,optional"`
	RightRelativePositionEllipse  float64 `hcl:"right_relative_position_ellipse,optional"`
	CenterRelativePositionEllipse float64 `hcl:"center_relative_position_ellipse,optional"`
}

// LeftPositionEllipse is the absolute axial distance behind the chest plane
// where the glandular ellipse starts.
func (g Geometry) LeftPositionEllipse() float64 { return g.LeftRelativePositionEllipse * g.Radius }

// PositionNipple is how far the glandular ellipse reaches past the hemisphere.
func (g Geometry) PositionNipple() float64 { return g.RightRelativePositionEllipse * g.Radius }

// PositionCenterEllipse is the radial offset of the ellipse centre.
func (g Geometry) PositionCenterEllipse() float64 { return g.CenterRelativePositionEllipse * g.Radius }

type Material struct {
	Skin      Tissue `hcl:"skin,block"`
	Adipose   Tissue `hcl:"adipose,block"`
	Glandular Tissue `hcl:"glandular,block"`
	Tumor     Tumor  `hcl:"tumor,block"`
}

// Tissue is a Mooney-Rivlin parameter set.
type Tissue struct {
	Density       float64 `hcl:"density,optional" feb:"density"`
	BulkModulus   float64 `hcl:"bulk_modulus,optional" feb:"k"`
	PressureModel string  `hcl:"pressure_model,optional" feb:"pressure_model"`
	Coef1         float64 `hcl:"coef1,optional" feb:"c1"`
	Coef2         float64 `hcl:"coef2,optional" feb:"c2"`
}

// Tumor is a spherical inclusion in absolute coordinates. Its coefficients
// replace those of the surrounding adipose or glandular tissue.
type Tumor struct {
	Enabled        bool      `hcl:"enabled,optional"`
	Density        float64   `hcl:"density,optional"`
	Radius         float64   `hcl:"radius,optional"`
	Position       []float64 `hcl:"position,optional"`
	Coef1Adipose   float64   `hcl:"coef1_adipose,optional"`
	Coef2Adipose   float64   `hcl:"coef2_adipose,optional"`
	Coef1Glandular float64   `hcl:"coef1_glandular,optional"`
	Coef2Glandular float64   `hcl:"coef2_glandular,optional"`
}

type Simulation struct {
	ControlStep1     Control       `hcl:"control_step1,block"`
	TimestepperStep1 Timestepper   `hcl:"timestepper_step1,block"`
	SolverStep1      Solver        `hcl:"solver_step1,block"`
	QNMethodStep1    QNMethod      `hcl:"qnmethod_step1,block"`
	ControlStep2     Control       `hcl:"control_step2,block"`
	TimestepperStep2 Timestepper   `hcl:"timestepper_step2,block"`
	SolverStep2      Solver        `hcl:"solver_step2,block"`
	QNMethodStep2    QNMethod      `hcl:"qnmethod_step2,block"`
	Gravity          Gravity       `hcl:"gravity,block"`
	ParabolicJump    ParabolicJump `hcl:"parabolic_jump,block"`
	Animation        Animation     `hcl:"animation,block"`
	Output           Output        `hcl:"output,block"`
}

type Control struct {
	Analysis       string  `hcl:"analysis,optional" feb:"analysis"`
	TimeSteps      int     `hcl:"time_steps,optional" feb:"time_steps"`
	StepSize       float64 `hcl:"step_size,optional" feb:"step_size"`
	PlotZeroState  int     `hcl:"plot_zero_state,optional" feb:"plot_zero_state"`
	PlotRange      string  `hcl:"plot_range,optional" feb:"plot_range"`
	PlotLevel      string  `hcl:"plot_level,optional" feb:"plot_level"`
	OutputLevel    string  `hcl:"output_level,optional" feb:"output_level"`
	PlotStride     int     `hcl:"plot_stride,optional" feb:"plot_stride"`
	OutputStride   int     `hcl:"output_stride,optional" feb:"output_stride"`
	AdaptorReSolve int     `hcl:"adaptor_re_solve,optional" feb:"adaptor_re_solve"`
}

// Duration is the simulated time covered by the step.
func (c Control) Duration() float64 { return float64(c.TimeSteps) * c.StepSize }

// Timestepper configures FEBio's auto time stepper. In step 2, Dtmax is also
// the value of the must-point curve and is the only dtmax the solver sees.
type Timestepper struct {
	MaxRetries     int     `hcl:"max_retries,optional" feb:"max_retries"`
	OptIter        int     `hcl:"opt_iter,optional" feb:"opt_iter"`
	Dtmin          float64 `hcl:"dtmin,optional" feb:"dtmin"`
	Dtmax          float64 `hcl:"dtmax,optional" feb:"dtmax"`
	Aggressiveness int     `hcl:"aggressiveness,optional" feb:"aggressiveness"`
	Cutback        float64 `hcl:"cutback,optional" feb:"cutback"`
	Dtforce        int     `hcl:"dtforce,optional" feb:"dtforce"`
}

type Solver struct {
	SymmetricStiffness string  `hcl:"symmetric_stiffness,optional" feb:"symmetric_stiffness"`
	EquationScheme     string  `hcl:"equation_scheme,optional" feb:"equation_scheme"`
	EquationOrder      string  `hcl:"equation_order,optional" feb:"equation_order"`
	OptimizeBW         int     `hcl:"optimize_bw,optional" feb:"optimize_bw"`
	LSTol              float64 `hcl:"lstol,optional" feb:"lstol"`
	LSMin              float64 `hcl:"lsmin,optional" feb:"lsmin"`
	LSIter             int     `hcl:"lsiter,optional" feb:"lsiter"`
	LSCheckJacobians   int     `hcl:"ls_check_jacobians,optional" feb:"ls_check_jacobians"`
	MaxRefs            int     `hcl:"max_refs,optional" feb:"max_refs"`
	CheckZeroDiagonal  int     `hcl:"check_zero_diagonal,optional" feb:"check_zero_diagonal"`
	ZeroDiagonalTol    float64 `hcl:"zero_diagonal_tol,optional" feb:"zero_diagonal_tol"`
	ForcePartition     int     `hcl:"force_partition,optional" feb:"force_partition"`
	ReformEachTimeStep int     `hcl:"reform_each_time_step,optional" feb:"reform_each_time_step"`
	ReformAugment      int     `hcl:"reform_augment,optional" feb:"reform_augment"`
	DivergeReform      int     `hcl:"diverge_reform,optional" feb:"diverge_reform"`
	MinResidual        float64 `hcl:"min_residual,optional" feb:"min_residual"`
	MaxResidual        float64 `hcl:"max_residual,optional" feb:"max_residual"`
	Dtol               float64 `hcl:"dtol,optional" feb:"dtol"`
	Etol               float64 `hcl:"etol,optional" feb:"etol"`
	Rtol               float64 `hcl:"rtol,optional" feb:"rtol"`
	Rhoi               float64 `hcl:"rhoi,optional" feb:"rhoi"`
	Alpha              float64 `hcl:"alpha,optional" feb:"alpha"`
	Beta               float64 `hcl:"beta,optional" feb:"beta"`
	Gamma              float64 `hcl:"gamma,optional" feb:"gamma"`
	LogSolve           int     `hcl:"log_solve,optional" feb:"logSolve"`
	ArcLength          int     `hcl:"arc_length,optional" feb:"arc_length"`
	ArcLengthScale     float64 `hcl:"arc_length_scale,optional" feb:"arc_length_scale"`
}

type QNMethod struct {
	MaxUps        int     `hcl:"max_ups,optional" feb:"max_ups"`
	MaxBufferSize int     `hcl:"max_buffer_size,optional" feb:"max_buffer_size"`
	CycleBuffer   int     `hcl:"cycle_buffer,optional" feb:"cycle_buffer"`
	Cmax          float64 `hcl:"cmax,optional" feb:"cmax"`
}

// Gravity controls the sampling of the phase 1 gravity ramp.
type Gravity struct {
	NSteps int `hcl:"n_steps,optional"`
}

type ParabolicJump struct {
	MaxHeight float64 `hcl:"max_height,optional"`
}

// Animation only carries the frame rate. The step 2 dtmax lives in
// timestepper_step2.
type Animation struct {
	FPS int `hcl:"fps,optional"`
}

type Output struct {
	VTK            bool `hcl:"vtk,optional"`
	Displacement   bool `hcl:"displacement,optional"`
	Stress         bool `hcl:"stress,optional"`
	RelativeVolume bool `hcl:"relative_volume,optional"`
}
