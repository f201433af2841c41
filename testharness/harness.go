// Package testharness collects on-chain module sources, hands them to a test
// runner and turns the outcome into a process exit code.
package testharness

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/rs/zerolog"
)

// DepPattern selects dependency sources under the dependency root.
const DepPattern = `\.move$`

const (
	ExitPassed = 0
	ExitFailed = 1
)

// Plan is the set of files a Runner was asked to test.
type Plan struct {
	Sources []string
	Deps    []string
}

// Runner builds and executes a test plan.
type Runner interface {
	BuildPlan(sources, deps []string) (*Plan, error)
	// RunAndReport writes a human readable report to out and reports
	// whether every test passed.
	RunAndReport(plan *Plan, out io.Writer) (bool, error)
}

type Config struct {
	Runner Runner
	// Out receives the report. Defaults to os.Stdout.
	Out    io.Writer
	Logger zerolog.Logger
}

// Run tests every file under root whose path matches sourcePattern, with the
// .move files under depRoot (if non-empty) as dependencies. It returns
// ExitPassed only when all tests passed; any failure to collect, plan or run
// is reported to cfg.Out and yields ExitFailed.
func Run(cfg Config, root, sourcePattern, depRoot string) int {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	fail := func(err error) int {
		cfg.Logger.Error().Err(err).Str("root", root).Msg("test run failed")
		fmt.Fprintf(out, "error: %v\n", err)
		return ExitFailed
	}
	if cfg.Runner == nil {
		return fail(fmt.Errorf("testharness: no runner configured"))
	}

	sources, err := Collect(root, sourcePattern)
	if err != nil {
		return fail(err)
	}
	var deps []string
	if depRoot != "" {
		if deps, err = Collect(depRoot, DepPattern); err != nil {
			return fail(err)
		}
	}
	cfg.Logger.Debug().Int("sources", len(sources)).Int("deps", len(deps)).Msg("collected test inputs")

	plan, err := cfg.Runner.BuildPlan(sources, deps)
	if err != nil {
		return fail(fmt.Errorf("testharness: unable to build test plan: %w", err))
	}
	passed, err := cfg.Runner.RunAndReport(plan, out)
	if err != nil {
		return fail(fmt.Errorf("testharness: failed to execute tests: %w", err))
	}
	if !passed {
		return ExitFailed
	}
	return ExitPassed
}

// Collect returns the regular files under root whose path matches pattern,
// in lexical order.
func Collect(root, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("testharness: invalid regular expression %q: %w", pattern, err)
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && re.MatchString(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
