package testharness

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	planErr error
	runErr  error
	passed  bool
	plan    *Plan
}

func (f *fakeRunner) BuildPlan(sources, deps []string) (*Plan, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	f.plan = &Plan{Sources: sources, Deps: deps}
	return f.plan, nil
}

func (f *fakeRunner) RunAndReport(_ *Plan, out io.Writer) (bool, error) {
	_, _ = io.WriteString(out, "report\n")
	return f.passed, f.runErr
}

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
	return root
}

func TestRunPassesMatchedFiles(t *testing.T) {
	src := writeTree(t, "a/Coin.move", "a/README.md", "b/Tests.move")
	deps := writeTree(t, "std/Vector.move", "std/notes.txt")
	r := &fakeRunner{passed: true}
	var out bytes.Buffer

	code := Run(Config{Runner: r, Out: &out}, src, `Tests?\.move$|Coin\.move$`, deps)
	require.Equal(t, ExitPassed, code)
	require.Equal(t, []string{filepath.Join(src, "a/Coin.move"), filepath.Join(src, "b/Tests.move")}, r.plan.Sources)
	require.Equal(t, []string{filepath.Join(deps, "std/Vector.move")}, r.plan.Deps)
	require.Equal(t, "report\n", out.String())
}

func TestRunWithoutDepRoot(t *testing.T) {
	src := writeTree(t, "x.move")
	r := &fakeRunner{passed: true}

	require.Equal(t, ExitPassed, Run(Config{Runner: r, Out: io.Discard}, src, `\.move$`, ""))
	require.Empty(t, r.plan.Deps)
}

func TestRunFailures(t *testing.T) {
	src := writeTree(t, "x.move")
	cases := []struct {
		name    string
		runner  Runner
		pattern string
	}{
		{"tests failed", &fakeRunner{passed: false}, `\.move$`},
		{"plan error", &fakeRunner{planErr: errors.New("bad source")}, `\.move$`},
		{"run error", &fakeRunner{runErr: errors.New("vm crashed")}, `\.move$`},
		{"invalid pattern", &fakeRunner{passed: true}, `*.move`},
		{"no runner", nil, `\.move$`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			require.Equal(t, ExitFailed, Run(Config{Runner: tc.runner, Out: &out}, src, tc.pattern, ""))
		})
	}
}

func TestRunMissingRoot(t *testing.T) {
	var out bytes.Buffer
	code := Run(Config{Runner: &fakeRunner{passed: true}, Out: &out}, filepath.Join(t.TempDir(), "absent"), `.`, "")
	require.Equal(t, ExitFailed, code)
	require.Contains(t, out.String(), "error:")
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	src := writeTree(t, "ok.move")

	var out bytes.Buffer
	pass := ExecRunner{Command: []string{"sh", "-c", `echo "ran $# file(s)"`, "runner"}}
	require.Equal(t, ExitPassed, Run(Config{Runner: pass, Out: &out}, src, `\.move$`, ""))
	require.Contains(t, out.String(), "ran 1 file(s)")

	fail := ExecRunner{Command: []string{"sh", "-c", "exit 3", "runner"}}
	require.Equal(t, ExitFailed, Run(Config{Runner: fail, Out: io.Discard}, src, `\.move$`, ""))

	missing := ExecRunner{Command: []string{filepath.Join(t.TempDir(), "no-such-binary")}}
	require.Equal(t, ExitFailed, Run(Config{Runner: missing, Out: io.Discard}, src, `\.move$`, ""))
}

func TestExecRunnerRequiresSources(t *testing.T) {
	_, err := ExecRunner{Command: []string{"true"}}.BuildPlan(nil, nil)
	require.Error(t, err)
}
