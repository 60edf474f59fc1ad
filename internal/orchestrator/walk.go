package orchestrator

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

// ResolveProblems expands paths (files or directories, walked recursively)
// into Problems with a resolved expected classification. A path whose
// expectation can't be determined — no directive and no configured default
// — is skipped with a warning rather than failing the whole batch.
func ResolveProblems(paths []string, defaultExpect model.Classification, logger *slog.Logger) []model.Problem {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			logger.Warn("problem discovery: stat failed, skipping", "path", p, "error", err)
			continue
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		_ = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("problem discovery: walk failed, skipping", "path", path, "error", err)
				return nil
			}
			if d.IsDir() {
				return nil
			}
			files = append(files, path)
			return nil
		})
	}

	problems := make([]model.Problem, 0, len(files))
	for _, path := range files {
		expected, err := FindExpect(path)
		if err != nil {
			if defaultExpect == "" {
				logger.Warn("problem discovery: expected result not found, skipping", "path", path, "error", err)
				continue
			}
			expected = defaultExpect
		}
		problems = append(problems, model.Problem{Path: path, Expected: expected})
	}
	return problems
}
