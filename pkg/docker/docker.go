// Package docker drives the local docker engine through its CLI, the same
// way a user would. Build failures surface as the engine's own non-zero exit
// and console output; nothing is retried.
package docker

import (
	"os"
	"os/exec"
	"strings"

	"github.com/sero-rs/seropack/pkg/util/console"
)

func Push(image string) error {
	return execDocker("push", image)
}

func Tag(src, dest string) error {
	return execDocker("tag", src, dest)
}

func execDocker(name string, args ...string) error {
	cmdArgs := []string{name}
	cmdArgs = append(cmdArgs, args...)
	cmd := exec.Command("docker", cmdArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	console.Debug("$ " + strings.Join(cmd.Args, " "))
	return cmd.Run()
}
