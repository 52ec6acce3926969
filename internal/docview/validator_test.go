package docview

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFile_RejectsBeforeParsing(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	notPDF := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("hello"), 0o600))

	big := filepath.Join(dir, "big.pdf")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("x", 64)), 0o600))

	v := NewValidator(32)

	tests := []struct {
		name    string
		path    string
		message string
	}{
		{"empty_path", "", "path cannot be empty"},
		{"missing_file", filepath.Join(dir, "missing.pdf"), "does not exist"},
		{"directory", dir, "is a directory"},
		{"wrong_extension", notPDF, "not a PDF"},
		{"empty_file", empty, "is empty"},
		{"too_large", big, "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateFile(DocValidateRequest{Path: tt.path})
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Contains(t, result.Message, tt.message)
		})
	}
}

func TestValidateFile_GarbageContentFailsParsing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf at all"), 0o600))

	v := NewValidator(1024)
	result, err := v.ValidateFile(DocValidateRequest{Path: path})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Message)
}

func TestIsValidPDF(t *testing.T) {
	v := NewValidator(1024)
	assert.False(t, v.IsValidPDF(""))
	assert.False(t, v.IsValidPDF("/nonexistent/file.pdf"))
}
