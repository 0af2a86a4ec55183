package catalog

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// AssetChecker reports whether the asset behind a reference is available.
type AssetChecker interface {
	Exists(ref string) bool
}

// FSAssetChecker resolves asset references against a directory.
type FSAssetChecker struct {
	fs  afero.Fs
	dir string
}

// NewFSAssetChecker creates a checker rooted at dir on fs.
func NewFSAssetChecker(fs afero.Fs, dir string) *FSAssetChecker {
	return &FSAssetChecker{fs: fs, dir: dir}
}

// Exists reports whether ref names a regular file inside the asset directory.
// Empty references and references escaping the directory are unavailable.
func (c *FSAssetChecker) Exists(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	path := filepath.Join(c.dir, filepath.Clean("/"+ref))
	info, err := c.fs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
