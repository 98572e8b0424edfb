package settings

// Default returns the settings used when a file leaves a value out.
func Default() Settings {
	return Settings{
		Model: Model{
			Mesh: Mesh{
				Size:     0.005,
				Density:  260,
				Optimize: true,
				Order:    2,
			},
			Geometry: Geometry{
				Radius:                        0.07,
				ThicknessChestWall:            0.002,
				LeftRelativePositionEllipse:   0.4,
				RightRelativePositionEllipse:  0.05,
				CenterRelativePositionEllipse: 0.3,
			},
		},
		Material: Material{
			Skin:      Tissue{Density: 1100, BulkModulus: 480000, PressureModel: "default", Coef1: 1200, Coef2: 1200},
			Adipose:   Tissue{Density: 911, BulkModulus: 425000, PressureModel: "default", Coef1: 109, Coef2: 106},
			Glandular: Tissue{Density: 1041, BulkModulus: 425000, PressureModel: "default", Coef1: 230, Coef2: 195},
			Tumor: Tumor{
				Enabled:        true,
				Density:        1079,
				Radius:         0.005,
				Position:       []float64{0.035, 0.040, 0},
				Coef1Adipose:   971,
				Coef2Adipose:   939,
				Coef1Glandular: 920,
				Coef2Glandular: 870,
			},
		},
		Simulation: Simulation{
			ControlStep1: Control{
				Analysis:       "STATIC",
				TimeSteps:      10,
				StepSize:       0.1,
				PlotRange:      "0,-1",
				PlotLevel:      "PLOT_NEVER",
				OutputLevel:    "OUTPUT_NEVER",
				PlotStride:     1,
				OutputStride:   1,
				AdaptorReSolve: 1,
			},
			TimestepperStep1: Timestepper{MaxRetries: 40, OptIter: 11, Dtmax: 0.1, Cutback: 0.5},
			SolverStep1:      defaultSolver(0.25, 0.25),
			QNMethodStep1:    defaultQNMethod(),
			ControlStep2: Control{
				Analysis:       "DYNAMIC",
				TimeSteps:      120,
				StepSize:       0.01,
				PlotRange:      "0,-1",
				PlotLevel:      "PLOT_MUST_POINTS",
				OutputLevel:    "OUTPUT_MUST_POINTS",
				PlotStride:     1,
				OutputStride:   1,
				AdaptorReSolve: 1,
			},
			TimestepperStep2: Timestepper{MaxRetries: 20, OptIter: 11, Dtmax: 0.01, Cutback: 0.5},
			SolverStep2:      defaultSolver(1, 1.5),
			QNMethodStep2:    defaultQNMethod(),
			Gravity:          Gravity{NSteps: 10},
			ParabolicJump:    ParabolicJump{MaxHeight: 0.01},
			Animation:        Animation{FPS: 40},
			Output:           Output{VTK: true, Displacement: true},
		},
	}
}

// defaultSolver differs between steps only in the Newmark parameters.
func defaultSolver(beta, gamma float64) Solver {
	return Solver{
		SymmetricStiffness: "symmetric",
		EquationScheme:     "staggered",
		EquationOrder:      "default",
		LSTol:              0.9,
		LSMin:              0.01,
		LSIter:             5,
		MaxRefs:            15,
		ReformEachTimeStep: 1,
		DivergeReform:      1,
		MinResidual:        1e-20,
		Dtol:               0.001,
		Etol:               0.01,
		Rhoi:               -2,
		Alpha:              1,
		Beta:               beta,
		Gamma:              gamma,
	}
}

func defaultQNMethod() QNMethod {
	return QNMethod{MaxUps: 10, CycleBuffer: 1, Cmax: 100000}
}
