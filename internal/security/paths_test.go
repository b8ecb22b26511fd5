package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "transects")
	elsewhere := filepath.Join(tmp, "elsewhere")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.MkdirAll(elsewhere, 0o755))
	require.NoError(t, os.Symlink(elsewhere, filepath.Join(out, "link")))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file in directory", filepath.Join(out, "2025_06_14_T1.csv"), false},
		{"nested new file", filepath.Join(out, "plots", "T1.png"), false},
		{"dot dot escape", filepath.Join(out, "..", "T1.csv"), true},
		{"absolute elsewhere", filepath.Join(elsewhere, "T1.csv"), true},
		{"through symlink", filepath.Join(out, "link", "T1.csv"), true},
		{"through symlink new dir", filepath.Join(out, "link", "new", "T1.csv"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, out)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePathWithinDirectory_MissingDir(t *testing.T) {
	err := ValidatePathWithinDirectory("x.csv", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12", "12"},
		{"Site 12", "Site_12"},
		{"../../etc/passwd", "etc_passwd"},
		{"kelp  bed #3", "kelp_bed_3"},
		{"a/b\\c", "a_b_c"},
		{"__x__", "x"},
		{"", ""},
		{"///", ""},
		{"réef", "r_ef"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
	assert.LessOrEqual(t, len(SanitizeFilename(strings.Repeat("a", 500))), maxFilenameLen)
}
