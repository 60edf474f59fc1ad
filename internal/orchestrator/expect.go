package orchestrator

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

// expectDirective matches `expect:`/`expected:` anywhere in a problem file,
// case-insensitive. `fail` aliases Error.
var expectDirective = regexp.MustCompile(`(?i)expect(ed)?:\s*(unsat|sat|unknown|timeout|error|fail)`)

// expectScanBytes bounds how much of a problem file is read looking for the
// directive — "a small prefix" step 1, not the whole file.
const expectScanBytes = 4096

// FindExpect scans the head of path for the expect directive and parses its
// classification.
func FindExpect(path string) (model.Classification, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, expectScanBytes)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	m := expectDirective.FindStringSubmatch(string(buf[:n]))
	if m == nil {
		return "", fmt.Errorf("expected result not found in %s", path)
	}
	class, ok := model.ParseClassification(strings.ToLower(m[2]))
	if !ok {
		return "", fmt.Errorf("unrecognized expect directive %q in %s", m[2], path)
	}
	return class, nil
}
