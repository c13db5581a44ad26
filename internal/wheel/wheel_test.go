package wheel

import (
	"testing"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	name, version, err := ParseFilename("requests-2.31.0-py3-none-any.whl")

	require.NoError(t, err)
	assert.Equal(t, "requests", name)
	assert.Equal(t, "2.31.0", version)
}

func TestParseFilename_NoDelimiter(t *testing.T) {
	_, _, err := ParseFilename("foo.whl")

	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestParseFilename_CaseSensitive(t *testing.T) {
	// No normalization: the name comes back exactly as uploaded.
	name, version, err := ParseFilename("Django-4.2.1-py3-none-any.whl")

	require.NoError(t, err)
	assert.Equal(t, "Django", name)
	assert.Equal(t, "4.2.1", version)
}

func TestIsWheel(t *testing.T) {
	assert.True(t, IsWheel("pkg-1.0.0-py3-none-any.whl"))
	assert.False(t, IsWheel("pkg-1.0.0.tar.gz"))
	assert.False(t, IsWheel("readme.txt"))
}

func TestLatestVersion(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
	}{
		{"numeric ordering", []string{"2.9.1", "2.10.0", "2.2.0"}, "2.10.0"},
		{"single", []string{"1.0.0"}, "1.0.0"},
		{"pre-release below final", []string{"1.0.0rc1", "1.0.0"}, "1.0.0"},
		{"unparseable skipped", []string{"not_a_version", "0.1.0"}, "0.1.0"},
		{"nothing parses", []string{"not_a_version"}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LatestVersion(tt.versions))
		})
	}
}
