package harness

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteResult summarizes a run over many scenario files.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Failures []SuiteFailure `json:"failures,omitempty"`
}

// SuiteFailure is one scenario that failed to load, run or pass.
type SuiteFailure struct {
	ScenarioPath string   `json:"scenario_path"`
	Error        string   `json:"error"`
	Details      []string `json:"details,omitempty"`
}

// OK reports whether every scenario passed.
func (r *SuiteResult) OK() bool {
	return r.Failed == 0
}

// DiscoverScenarios returns the scenario files under path. A file path is
// returned as is. A directory is walked for *.yaml and *.yml files, sorted
// lexically.
func DiscoverScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite loads and runs every scenario. Failures are collected rather
// than returned so one broken file does not hide the others.
func RunSuite(ctx context.Context, paths []string) *SuiteResult {
	result := &SuiteResult{}

	for _, path := range paths {
		result.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, SuiteFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("failed to load scenario: %v", err),
			})
			continue
		}

		runResult, err := RunContext(ctx, scenario)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, SuiteFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("scenario execution failed: %v", err),
			})
			continue
		}

		if !runResult.Pass {
			result.Failed++
			result.Failures = append(result.Failures, SuiteFailure{
				ScenarioPath: path,
				Error:        "scenario assertions failed",
				Details:      runResult.Errors,
			})
			continue
		}

		result.Passed++
	}
	return result
}
