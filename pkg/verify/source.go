package verify

import (
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/daemon"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
)

// ImageFromDaemon loads a built image from the local docker engine.
func ImageFromDaemon(ref string) (v1.Image, error) {
	parsed, err := name.ParseReference(ref)
	if err != nil {
		return nil, fmt.Errorf("Invalid image reference %q: %w", ref, err)
	}
	img, err := daemon.Image(parsed)
	if err != nil {
		return nil, fmt.Errorf("Failed to load %s from the docker engine: %w", ref, err)
	}
	return img, nil
}

// ImageFromTarball loads an image from a `docker save` style tarball.
func ImageFromTarball(path string) (v1.Image, error) {
	img, err := tarball.ImageFromPath(path, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to load image from %s: %w", path, err)
	}
	return img, nil
}
