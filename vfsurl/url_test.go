package vfsurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegular(t *testing.T) {
	u, err := Parse("/home/user/docs")
	require.NoError(t, err)
	assert.True(t, u.IsRegular())
	assert.Equal(t, uint32(0), u.Uri())
	assert.Equal(t, uint32(0), u.Urn())
	assert.Equal(t, "/home/user/docs", u.Path())
}

func TestParseArchiveWithDomain(t *testing.T) {
	u, err := Parse("archive://myzip:1:1/home/user/archive.zip/inner/file.txt")
	require.NoError(t, err)
	assert.True(t, u.IsArchive())
	assert.Equal(t, "myzip", u.Scheme().Domain)
	assert.Equal(t, uint32(1), u.Uri())
	assert.Equal(t, uint32(1), u.Urn())
}

func TestParseUnknownScheme(t *testing.T) {
	_, err := Parse("ftp://host/path")
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"/a/b/c",
		"sftp://myhost:1:1/home/user/file.txt",
		"archive://zip1:0:0/some/archive.tar",
	}
	for _, c := range cases {
		u, err := Parse(c)
		require.NoError(t, err)
		u2, err := Parse(u.Display())
		require.NoError(t, err)
		assert.Equal(t, u, u2, "round-trip for %q", c)
	}
}

func TestCleanIdempotent(t *testing.T) {
	u, err := Parse("/a/./b/../c//d")
	require.NoError(t, err)
	c1 := Clean(u)
	c2 := Clean(c1)
	assert.Equal(t, c1, c2)
	assert.Equal(t, "/a/c/d", c1.Path())
}

func TestCleanDoesNotEscapeRoot(t *testing.T) {
	u, err := Parse("/a/../../../b")
	require.NoError(t, err)
	c := Clean(u)
	assert.Equal(t, "/b", c.Path())
}

func TestCovariance(t *testing.T) {
	reg, _ := Parse("/a/b")
	search, _ := Parse("search://kw:0:0/a/b")
	arch1, _ := Parse("archive://z1:0:0/a")
	arch2, _ := Parse("archive://z2:0:0/a")
	arch1b, _ := Parse("archive://z1:0:0/b")

	assert.True(t, reg.Covariant(search))
	assert.False(t, arch1.Covariant(arch2))
	assert.True(t, arch1.Covariant(arch1b))
	assert.False(t, reg.Covariant(arch1))
}

func TestJoinStartsWith(t *testing.T) {
	u, _ := Parse("/a/b")
	j := Join(u, "c", "d")
	ok, err := StartsWith(j, u)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestJoinStartsWithCrossScheme(t *testing.T) {
	u, _ := Parse("/a/b")
	a, _ := Parse("archive://z1:0:0/a/b")
	_, err := StartsWith(a, u)
	assert.ErrorIs(t, err, ErrCrossScheme)
}

func TestCachePath(t *testing.T) {
	reg, _ := Parse("/a/b")
	_, ok := CachePath("/cache", reg)
	assert.False(t, ok, "regular urls have no cache path")

	a, _ := Parse("archive://z1:0:0/a/b")
	p, ok := CachePath("/cache", a)
	assert.True(t, ok)
	assert.Contains(t, p, "/cache/")
}

func TestCacheLockPathStable(t *testing.T) {
	a, _ := Parse("archive://z1:0:0/a/b")
	p1 := CacheLockPath("/cache", a)
	p2 := CacheLockPath("/cache", a)
	assert.Equal(t, p1, p2)
}

func TestWTF8RoundTripValidUTF16(t *testing.T) {
	units := []uint16{'h', 'i', 0x4E2D} // "hi中"
	enc := EncodeWTF8(units)
	dec, err := DecodeWTF8ToUTF16(enc)
	require.NoError(t, err)
	assert.Equal(t, units, dec)
}

func TestWTF8LoneSurrogateRoundTrips(t *testing.T) {
	units := []uint16{'a', 0xD800, 'b'} // lone high surrogate
	enc := EncodeWTF8(units)
	dec, err := DecodeWTF8ToUTF16(enc)
	require.NoError(t, err)
	assert.Equal(t, units, dec)
}
