package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertJobLogged checks that a text-format log line mentioning the job
// contains msg. It hides the key=value layout of the text handler.
func AssertJobLogged(t *testing.T, logs, job, msg string) {
	t.Helper()

	want := fmt.Sprintf("job=%s", job)
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, want) && strings.Contains(line, msg) {
			return
		}
	}
	require.Failf(t, "log line not found", "no line with %q and %q in:\n%s", want, msg, logs)
}
