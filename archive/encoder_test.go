package archive_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirserve/dirserve"
	"github.com/dirserve/dirserve/archive"
)

func TestNewEncoder(t *testing.T) {
	var buf bytes.Buffer

	enc, err := archive.NewEncoder(dirserve.FormatTar, &buf)
	require.NoError(t, err)
	assert.NotNil(t, enc)

	enc, err = archive.NewEncoder(dirserve.FormatZip, &buf)
	require.NoError(t, err)
	assert.NotNil(t, enc)

	_, err = archive.NewEncoder("rar", &buf)
	assert.ErrorIs(t, err, dirserve.ErrInvalidInput)
}
