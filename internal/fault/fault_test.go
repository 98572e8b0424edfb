package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorySentinels(t *testing.T) {
	t.Parallel()

	err := Compilation("case_a", fmt.Errorf("canonicalize: %w", ErrDuplicateNode))

	assert.ErrorIs(t, err, CompilationError)
	assert.ErrorIs(t, err, ErrDuplicateNode)
	assert.NotErrorIs(t, err, SolveFailure)
	assert.Equal(t, CategoryCompilation, CategoryOf(err))
	assert.Equal(t, `compilation failure in job "case_a": canonicalize: duplicate node id`, err.Error())
}

func TestWrapKeepsExistingCategory(t *testing.T) {
	t.Parallel()

	inner := Solve("", ErrErrorTermination)
	outer := Solve("case_b", inner)

	var fe *Error
	require.ErrorAs(t, outer, &fe)
	assert.Equal(t, "case_b", fe.Job)
	assert.ErrorIs(t, outer, ErrErrorTermination)
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryNone},
		{"plain", errors.New("boom"), CategoryNone},
		{"postprocess", PostProcess("j", ErrMissingFrame), CategoryPostProcess},
		{"scheduler", Scheduler(ErrInvalidPolicy), CategoryScheduler},
		{"wrapped", fmt.Errorf("outer: %w", Solve("j", ErrNoTermination)), CategorySolve},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CategoryOf(tc.err))
		})
	}
}

func TestNilStaysNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Compilation("j", nil))
}
