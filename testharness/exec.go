package testharness

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// DepFilesEnv carries dependency paths to an ExecRunner command, separated by
// os.PathListSeparator.
const DepFilesEnv = "SHUFFLE_DEP_FILES"

// ExecRunner runs an external test command with the source files appended to
// its arguments. A zero exit status means every test passed.
type ExecRunner struct {
	Command []string
	Dir     string
	Context context.Context
}

func (r ExecRunner) BuildPlan(sources, deps []string) (*Plan, error) {
	if len(r.Command) == 0 {
		return nil, errors.New("no test command")
	}
	if len(sources) == 0 {
		return nil, errors.New("no source files matched")
	}
	return &Plan{Sources: sources, Deps: deps}, nil
}

func (r ExecRunner) RunAndReport(plan *Plan, out io.Writer) (bool, error) {
	ctx := r.Context
	if ctx == nil {
		ctx = context.Background()
	}
	args := append(append([]string(nil), r.Command[1:]...), plan.Sources...)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Dir = r.Dir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = append(os.Environ(), DepFilesEnv+"="+strings.Join(plan.Deps, string(os.PathListSeparator)))

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &exitErr):
		return false, nil
	default:
		return false, err
	}
}
