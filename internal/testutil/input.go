package testutil

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ScriptedInput returns a reader that serves lines as if a user typed them
// at interactive sensor prompts.
func ScriptedInput(lines ...string) *bufio.Reader {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return bufio.NewReader(strings.NewReader(b.String()))
}

// WriteScript writes a script into a fresh temp dir and returns its path.
// Leading indentation common to all lines is removed so scripts can be
// written inline in tests.
func WriteScript(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(Dedent(src)), 0o644))
	return path
}

// Dedent removes the common leading whitespace of all non-blank lines and a
// leading newline.
func Dedent(src string) string {
	src = strings.TrimPrefix(src, "\n")
	lines := strings.Split(src, "\n")

	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return src
	}

	for i, l := range lines {
		if len(l) >= indent {
			lines[i] = l[indent:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
