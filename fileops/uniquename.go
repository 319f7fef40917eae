// Package fileops implements the long-running file operations that run
// as scheduler tasks and emit cha.FilesOp change records (§4.4):
// paste (copy/cut), link, hardlink, delete/trash.
//
// Grounded on rclone's fs/operations (confirmed test-only in this pack via
// operations_test.go/copy_test.go/dedupe_test.go: Move/Copy dispatch,
// "DoMove" same-backend-rename fast path, dedupe-by-renaming collision
// handling) and backend/local's Move/Copy implementations.
package fileops

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dirsail/dirsail/internal/xerrors"
	"github.com/dirsail/dirsail/vfs"
	"github.com/dirsail/dirsail/vfsurl"
)

// AppendPolicy controls where UniqueName inserts the disambiguating
// counter relative to the extension (§4.4).
type AppendPolicy int

const (
	// AppendBeforeExt produces "stem_1.ext".
	AppendBeforeExt AppendPolicy = iota
	// AppendAfterExt produces "stem.ext_1".
	AppendAfterExt
)

// UniqueName finds the first url at dir/name, dir/stem_1.ext,
// dir/stem_2.ext, ... (or the AppendAfterExt equivalent) whose
// symlink_metadata reports NotFound (§4.4).
func UniqueName(ctx context.Context, p vfs.Provider, dir vfsurl.Url, name string, policy AppendPolicy) (vfsurl.Url, error) {
	candidate := vfsurl.Join(dir, name)
	if _, err := p.SymlinkMetadata(ctx, candidate); xerrors.IsNotFound(err) {
		return candidate, nil
	} else if err != nil {
		return vfsurl.Url{}, err
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		var next string
		switch policy {
		case AppendAfterExt:
			next = fmt.Sprintf("%s%s_%d", stem, ext, n)
		default:
			next = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		candidate = vfsurl.Join(dir, next)
		_, err := p.SymlinkMetadata(ctx, candidate)
		if xerrors.IsNotFound(err) {
			return candidate, nil
		}
		if err != nil {
			return vfsurl.Url{}, err
		}
	}
}
