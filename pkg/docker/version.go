package docker

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/sero-rs/seropack/pkg/util/console"
)

// EngineVersion returns the server version of the local docker engine.
func EngineVersion() (string, error) {
	cmd := exec.Command("docker", "version", "--format", "{{.Server.Version}}")
	console.Debug("$ " + strings.Join(cmd.Args, " "))

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("Failed to query the docker engine, is it running? %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// BuildxVersion returns the buildx plugin version string, e.g. "v0.17.1".
func BuildxVersion() (string, error) {
	cmd := exec.Command("docker", "buildx", "version")
	console.Debug("$ " + strings.Join(cmd.Args, " "))

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("Failed to query buildx, is the plugin installed? %w", err)
	}
	// Output looks like "github.com/docker/buildx v0.17.1 abc123"
	fields := strings.Fields(string(out))
	for _, f := range fields {
		if strings.HasPrefix(f, "v") {
			return f, nil
		}
	}
	return "", fmt.Errorf("Unrecognized buildx version output: %q", strings.TrimSpace(string(out)))
}
