package docker

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/docker/docker/api/types/image"

	"github.com/sero-rs/seropack/pkg/util/console"
)

// Inspect returns the engine's inspect response for a local image.
func Inspect(ref string) (*image.InspectResponse, error) {
	cmd := exec.Command("docker", "image", "inspect", ref)
	console.Debug("$ " + strings.Join(cmd.Args, " "))

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("Failed to inspect image %s: %w", ref, err)
	}

	var responses []image.InspectResponse
	if err := json.Unmarshal(out, &responses); err != nil {
		return nil, fmt.Errorf("Failed to parse inspect output for %s: %w", ref, err)
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("No such image: %s", ref)
	}
	return &responses[0], nil
}

// ImageExists reports whether the image exists in the local engine.
func ImageExists(ref string) (bool, error) {
	cmd := exec.Command("docker", "image", "inspect", ref)
	console.Debug("$ " + strings.Join(cmd.Args, " "))

	if err := cmd.Run(); err != nil {
		if _, isExit := err.(*exec.ExitError); isExit {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
