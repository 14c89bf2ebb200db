package dirserve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dirserve/dirserve"
)

func TestFormat_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		format dirserve.Format
		valid  bool
	}{
		{
			name:   "tar is valid",
			format: dirserve.FormatTar,
			valid:  true,
		},
		{
			name:   "zip is valid",
			format: dirserve.FormatZip,
			valid:  true,
		},
		{
			name:   "empty format is invalid",
			format: "",
			valid:  false,
		},
		{
			name:   "random string is invalid",
			format: "rar",
			valid:  false,
		},
		{
			name:   "uppercase format is invalid",
			format: "TAR",
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.format.IsValid())
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := dirserve.ParseFormat("tar")
	assert.NoError(t, err)
	assert.Equal(t, dirserve.FormatTar, f)

	f, err = dirserve.ParseFormat("zip")
	assert.NoError(t, err)
	assert.Equal(t, dirserve.FormatZip, f)

	_, err = dirserve.ParseFormat("7z")
	assert.Error(t, err)
	assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "application/x-tar", dirserve.FormatTar.ContentType())
	assert.Equal(t, "application/zip", dirserve.FormatZip.ContentType())
}

func TestFormat_Filename(t *testing.T) {
	assert.Equal(t, "docs.tar", dirserve.FormatTar.Filename("docs"))
	assert.Equal(t, "docs.zip", dirserve.FormatZip.Filename("docs"))
}
