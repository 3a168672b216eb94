package charstream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringStream(t *testing.T) {
	s := NewStringStream("ab")
	require.False(t, s.IsEndOfStream())
	require.Equal(t, 'a', s.NextChar())
	require.Equal(t, 'b', s.NextChar())
	require.True(t, s.IsEndOfStream())
	require.Equal(t, EndOfSource, s.NextChar())
}

func TestFileStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.vx")
	require.NoError(t, os.WriteFile(path, []byte("x=1;"), 0o644))

	fs, err := OpenFile(path)
	require.NoError(t, err)
	defer fs.Close()

	var out []rune
	for !fs.IsEndOfStream() {
		out = append(out, fs.NextChar())
	}
	require.Equal(t, "x=1;", string(out))
	require.Equal(t, EndOfSource, fs.NextChar())
}

func TestFileStreamEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.vx")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fs, err := OpenFile(path)
	require.NoError(t, err)
	defer fs.Close()
	require.True(t, fs.IsEndOfStream())
}
