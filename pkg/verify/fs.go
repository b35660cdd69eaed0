package verify

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
)

// maxFileSize caps how much of any one file is kept in memory. The support
// files are tiny; the binary only needs its size and mode checked.
const maxFileSize = 1 << 20

type fileEntry struct {
	mode     int64
	size     int64
	contents []byte // populated for files up to maxFileSize
}

// imageFS is the flattened filesystem of an image, keyed by clean absolute
// path.
type imageFS struct {
	files map[string]fileEntry
}

// flatten extracts the image's layers into a single filesystem view.
func flatten(img v1.Image) (*imageFS, error) {
	fs := &imageFS{files: map[string]fileEntry{}}

	tr := tar.NewReader(mutate.Extract(img))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Failed to read image filesystem: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		entry := fileEntry{mode: hdr.Mode, size: hdr.Size}
		if hdr.Size <= maxFileSize {
			contents, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("Failed to read %s from image: %w", hdr.Name, err)
			}
			entry.contents = contents
		}
		fs.files[cleanPath(hdr.Name)] = entry
	}

	return fs, nil
}

func (fs *imageFS) lookup(p string) (fileEntry, bool) {
	entry, ok := fs.files[cleanPath(p)]
	return entry, ok
}

// filesUnder returns the paths of all regular files below dir.
func (fs *imageFS) filesUnder(dir string) []string {
	dir = cleanPath(dir)
	var matches []string
	for p := range fs.files {
		if strings.HasPrefix(p, dir+"/") {
			matches = append(matches, p)
		}
	}
	return matches
}

func cleanPath(p string) string {
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}
