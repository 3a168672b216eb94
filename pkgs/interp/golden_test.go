package interp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/veloxlang/velox/pkgs/parser"
)

// TestGoldenScripts runs every script under testing/scripts and compares
// its print output against the sibling .out file.
func TestGoldenScripts(t *testing.T) {
	scriptDir := filepath.Join("..", "..", "testing", "scripts")
	scripts, err := filepath.Glob(filepath.Join(scriptDir, "*.vx"))
	require.NoError(t, err)
	require.NotEmpty(t, scripts)

	for _, script := range scripts {
		script := script
		name := strings.TrimSuffix(filepath.Base(script), ".vx")
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(script)
			require.NoError(t, err)
			want, err := os.ReadFile(filepath.Join(scriptDir, name+".out"))
			require.NoError(t, err)

			var out strings.Builder
			terp, err := New(nil, func(s string) { out.WriteString(s + "\n") }, nil)
			require.NoError(t, err)
			prog, err := parser.Parse(string(src))
			require.NoError(t, err)
			require.NoError(t, terp.Run(prog))

			require.Empty(t, cmp.Diff(string(want), out.String()))
		})
	}
}
