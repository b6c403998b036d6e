package pipeline

import (
	"io/fs"
	"path/filepath"

	"github.com/theirongolddev/taxgame/internal/store"
)

// Fingerprint records mtime and size for every file under dir, keyed by
// slash-separated relative path.
func Fingerprint(dir string) (map[string]store.FileInfo, error) {
	out := make(map[string]store.FileInfo)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		rel, _ := filepath.Rel(dir, path)
		out[filepath.ToSlash(rel)] = store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}
		return nil
	})
	return out, err
}

// DiffFingerprints counts files added, removed or modified between a and b.
func DiffFingerprints(a, b map[string]store.FileInfo) int {
	n := 0
	for path, fa := range a {
		fb, ok := b[path]
		if !ok || fa != fb {
			n++
		}
	}
	for path := range b {
		if _, ok := a[path]; !ok {
			n++
		}
	}
	return n
}
