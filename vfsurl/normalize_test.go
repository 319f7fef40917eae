package vfsurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNFCComposesDecomposedAccents(t *testing.T) {
	// "e" + combining acute accent (NFD) -> single precomposed "é" (NFC).
	decomposed := "/dir/café.txt"
	u, err := Parse(decomposed)
	require.NoError(t, err)

	got := NormalizeNFC(u)
	assert.Equal(t, "/dir/café.txt", got.Path())
}

func TestNormalizeNFCNoopOnAlreadyNormalized(t *testing.T) {
	u, err := Parse("/dir/plain.txt")
	require.NoError(t, err)

	got := NormalizeNFC(u)
	assert.Equal(t, u.Path(), got.Path())
}
