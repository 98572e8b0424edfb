package solver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/vk/breastfem/internal/fault"
)

// tailLength is how much of the log end is searched for the markers.
const tailLength = 512

var (
	normalMarker  = regexp.MustCompile(`N O R M A L {3}T E R M I N A T I O N`)
	errorMarker   = regexp.MustCompile(`E R R O R {3}T E R M I N A T I O N`)
	elapsedMarker = regexp.MustCompile(`Total elapsed time [.]* : [\d:]* \(([\d.]+) sec\)`)
)

// Termination is what the solver log says about how a run ended.
type Termination struct {
	Normal bool
	// Elapsed is the solver's own timing, or -1 when the log has none.
	Elapsed time.Duration
}

func (t Termination) elapsed() string {
	if t.Elapsed < 0 {
		return "unknown time"
	}
	return t.Elapsed.String()
}

// ReadTermination inspects the end of a solver log. A missing log or a log
// without either marker is fault.ErrNoTermination.
func ReadTermination(path string) (Termination, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Termination{}, fmt.Errorf("%w: no log file at %s, the solver most likely did not run", fault.ErrNoTermination, path)
		}
		return Termination{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Termination{}, err
	}
	offset := max(0, fi.Size()-tailLength)
	tail, err := io.ReadAll(io.NewSectionReader(f, offset, fi.Size()-offset))
	if err != nil {
		return Termination{}, err
	}
	return ParseTermination(tail)
}

// ParseTermination reads the markers from the end of a log.
func ParseTermination(tail []byte) (Termination, error) {
	t := Termination{Elapsed: -1}
	if m := elapsedMarker.FindSubmatch(tail); m != nil {
		if sec, err := strconv.ParseFloat(string(m[1]), 64); err == nil {
			t.Elapsed = time.Duration(sec * float64(time.Second))
		}
	}
	switch {
	case normalMarker.Match(tail):
		t.Normal = true
	case errorMarker.Match(tail):
	default:
		return t, fault.ErrNoTermination
	}
	return t, nil
}
