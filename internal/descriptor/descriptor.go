// Package descriptor derives the two simulation steps and their load curves
// from the simulation settings.
//
// Step 1 ramps gravity up quasi-statically until the breast settles. Step 2
// continues from that state and drives the chest wall along a parabolic jump.
// All curve times are absolute: step 2 starts where step 1 ends.
package descriptor

import (
	"fmt"
	"math"
	"strings"

	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/settings"
	"gonum.org/v1/gonum/floats"
)

// Load curve ids as referenced from the solver input.
const (
	GravityCurveID    = 1
	JumpCurveID       = 2
	MustPointsCurveID = 3
)

type Analysis string

const (
	Static  Analysis = "STATIC"
	Dynamic Analysis = "DYNAMIC"
)

// Phase is one solver step.
type Phase struct {
	ID          int
	Name        string
	Analysis    Analysis
	Start       float64
	Control     settings.Control
	Timestepper settings.Timestepper
	Solver      settings.Solver
	QNMethod    settings.QNMethod
	// ContinueFromPrevious marks that the phase starts from the deformed,
	// stressed end state of the previous phase.
	ContinueFromPrevious bool
}

// Duration is TimeSteps × StepSize.
func (p Phase) Duration() float64 { return p.Control.Duration() }

func (p Phase) End() float64 { return p.Start + p.Duration() }

type Point struct {
	T, V float64
}

// LoadCurve is a piecewise linear curve, held constant outside its points.
type LoadCurve struct {
	ID     int
	Points []Point
}

// Span is the time between the first and the last point.
func (c LoadCurve) Span() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	return c.Points[len(c.Points)-1].T - c.Points[0].T
}

// Schedule lists the step 2 states written as animation frames.
type Schedule struct {
	// Steps are step 2 time step indices, one per frame.
	Steps []int
	// Times are the absolute times of the frames.
	Times []float64
}

// Descriptor is everything the serializer needs about the simulation.
type Descriptor struct {
	Gravity    Phase
	Jump       Phase
	Trajectory Trajectory
	FPS        int

	GravityCurve LoadCurve
	JumpCurve    LoadCurve
	// MustPoints forces the solver to land on every frame time. Its value is
	// the step 2 dtmax.
	MustPoints LoadCurve
	Output     Schedule
}

// Build derives the descriptor. Invalid timing settings fail with
// fault.ErrMalformedDescriptor.
func Build(sim settings.Simulation) (*Descriptor, error) {
	if err := check(sim); err != nil {
		return nil, fmt.Errorf("%w: %v", fault.ErrMalformedDescriptor, err)
	}

	sim.ControlStep1.Analysis = string(Static)
	sim.ControlStep2.Analysis = string(Dynamic)
	gravity := Phase{
		ID:          1,
		Name:        "Step1",
		Analysis:    Static,
		Control:     sim.ControlStep1,
		Timestepper: sim.TimestepperStep1,
		Solver:      sim.SolverStep1,
		QNMethod:    sim.QNMethodStep1,
	}
	jump := Phase{
		ID:                   2,
		Name:                 "Step2",
		Analysis:             Dynamic,
		Start:                gravity.End(),
		Control:              sim.ControlStep2,
		Timestepper:          sim.TimestepperStep2,
		Solver:               sim.SolverStep2,
		QNMethod:             sim.QNMethodStep2,
		ContinueFromPrevious: true,
	}

	d := &Descriptor{
		Gravity:    gravity,
		Jump:       jump,
		Trajectory: NewTrajectory(sim.ParabolicJump.MaxHeight),
		FPS:        sim.Animation.FPS,
	}
	d.GravityCurve = gravityCurve(gravity, sim.Gravity.NSteps)
	d.JumpCurve = jumpCurve(jump, d.Trajectory, d.FPS)
	d.Output = schedule(jump, d.FPS)
	d.MustPoints = LoadCurve{ID: MustPointsCurveID, Points: make([]Point, len(d.Output.Times))}
	for i, t := range d.Output.Times {
		d.MustPoints.Points[i] = Point{T: t, V: jump.Timestepper.Dtmax}
	}
	return d, nil
}

func check(sim settings.Simulation) error {
	for i, c := range []settings.Control{sim.ControlStep1, sim.ControlStep2} {
		// Step 1 settles under gravity, step 2 is the jump. Their kinds are fixed.
		want := []Analysis{Static, Dynamic}[i]
		if c.Analysis != "" && !strings.EqualFold(c.Analysis, string(want)) {
			return fmt.Errorf("control_step%d.analysis must be %s, got %q", i+1, want, c.Analysis)
		}
		if c.TimeSteps <= 0 {
			return fmt.Errorf("control_step%d.time_steps must be positive, got %d", i+1, c.TimeSteps)
		}
		if c.StepSize <= 0 {
			return fmt.Errorf("control_step%d.step_size must be positive, got %g", i+1, c.StepSize)
		}
	}
	switch {
	case sim.Animation.FPS <= 0:
		return fmt.Errorf("animation.fps must be positive, got %d", sim.Animation.FPS)
	case sim.ParabolicJump.MaxHeight < 0:
		return fmt.Errorf("parabolic_jump.max_height must not be negative, got %g", sim.ParabolicJump.MaxHeight)
	case sim.Gravity.NSteps < 2:
		return fmt.Errorf("gravity.n_steps must be at least 2, got %d", sim.Gravity.NSteps)
	case sim.TimestepperStep2.Dtmax <= 0:
		return fmt.Errorf("timestepper_step2.dtmax must be positive, got %g", sim.TimestepperStep2.Dtmax)
	}
	return nil
}

// gravityCurve ramps from zero to full gravity over the gravity phase.
func gravityCurve(p Phase, n int) LoadCurve {
	times := floats.Span(make([]float64, n), p.Start, p.End())
	c := LoadCurve{ID: GravityCurveID, Points: make([]Point, n)}
	for i, t := range times {
		c.Points[i] = Point{T: t, V: (t - p.Start) / p.Duration()}
	}
	return c
}

// jumpCurve samples the trajectory every 1/fps over the whole jump phase and
// closes with a sample at the phase end.
func jumpCurve(p Phase, tr Trajectory, fps int) LoadCurve {
	d := p.Duration()
	dt := 1 / float64(fps)
	c := LoadCurve{ID: JumpCurveID}
	for k := 0; ; k++ {
		tau := float64(k) * dt
		if tau >= d-1e-12 {
			break
		}
		c.Points = append(c.Points, Point{T: p.Start + tau, V: tr.Height(tau)})
	}
	c.Points = append(c.Points, Point{T: p.End(), V: tr.Height(d)})
	return c
}

// schedule picks one state per animation frame: round(duration × fps)
// frames at multiples of 1/fps from the phase start.
func schedule(p Phase, fps int) Schedule {
	n := int(math.Round(p.Duration() * float64(fps)))
	s := Schedule{Steps: make([]int, n), Times: make([]float64, n)}
	for k := 0; k < n; k++ {
		tau := float64(k) / float64(fps)
		s.Steps[k] = int(math.Round(tau / p.Control.StepSize))
		s.Times[k] = p.Start + tau
	}
	return s
}
