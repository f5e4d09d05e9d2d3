package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	d, err := parseLine("hello there")
	require.NoError(t, err)
	assert.Equal(t, "hello there", d.Text)
	assert.Nil(t, d.Attachment())

	path := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	d, err = parseLine("/file " + path + " look at this")
	require.NoError(t, err)
	assert.Equal(t, "look at this", d.Text)
	require.NotNil(t, d.Attachment())
	assert.Equal(t, "cat.png", d.Attachment().Filename)

	_, err = parseLine("/file /does/not/exist")
	assert.Error(t, err)
}
