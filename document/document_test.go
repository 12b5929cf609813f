package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "notes.md", want: "notes.md"},
		{in: "my notes.md", want: "my_notes.md"},
		{in: "my   weekly\tnotes.md", want: "my_weekly_notes.md"},
		{in: " padded .md", want: "padded_.md"},
		{in: "what?.md", want: "what_.md"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Release Notes.md")
	require.NoError(t, os.WriteFile(path, []byte("![x](http://x/a.png)"), 0644))

	doc, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "Release_Notes.md", doc.Name)
	assert.Equal(t, "Release_Notes", doc.Stem)
	assert.Equal(t, ".md", doc.Ext)
	assert.Equal(t, "![x](http://x/a.png)", doc.Text)
}

func TestRead_KeepsInnerDots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.2 notes.md")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "v1.2_notes", doc.Stem)
}

func TestRead_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.md")

	_, err := Read(path)

	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, path, inErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "doc_preprocessed.md")
	require.NoError(t, Write(path, "rewritten"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", string(b))
}
