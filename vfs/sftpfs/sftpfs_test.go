package sftpfs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dirsail/dirsail/vfsurl"
)

func TestEqualFold(t *testing.T) {
	assert.True(t, equalFold("README.TXT", "readme.txt"))
	assert.False(t, equalFold("README.TXT", "readme.tx"))
	assert.False(t, equalFold("a", "b"))
}

func TestUnresolvedDomainPropagatesError(t *testing.T) {
	wantErr := errors.New("no such host configured")
	p := New(func(domain string) (HostConfig, error) {
		return HostConfig{}, wantErr
	}, 0)

	u, err := vfsurl.Parse("sftp://unknown:0:0/home/user")
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Metadata(context.Background(), u)
	assert.ErrorIs(t, err, wantErr)
}

func TestHardLinkUnsupported(t *testing.T) {
	p := New(func(string) (HostConfig, error) { return HostConfig{}, nil }, 0)
	src, _ := vfsurl.Parse("sftp://h:0:0/a")
	dst, _ := vfsurl.Parse("sftp://h:0:0/b")
	err := p.HardLink(context.Background(), src, dst)
	assert.Error(t, err)
}
