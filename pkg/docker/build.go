package docker

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/sero-rs/seropack/pkg/util/console"
)

// BuildOptions are the engine-level knobs for a build. The pipeline itself
// has no retry or partial-success behavior: the engine either produces the
// tagged image or exits non-zero.
type BuildOptions struct {
	// BuildArgs override the plan's declared args (PROFILE, UID, GID).
	BuildArgs map[string]string
	// Labels to attach to the built image.
	Labels map[string]string
	// NoCache disables the engine's layer cache. The dockerfile's cache
	// mounts are unaffected.
	NoCache bool
	// CacheDir, if set, is used as a local buildx cache import/export path.
	CacheDir string
	// ProgressOutput is the buildx progress mode: auto, tty or plain.
	ProgressOutput string
}

// Build runs `docker buildx build` in dir with the Dockerfile on stdin.
func Build(dir, dockerfile, imageName string, options BuildOptions) error {
	cmd := exec.Command("docker", buildCommandArgs(imageName, options)...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr // redirect stdout to stderr - build output is all messaging
	cmd.Stderr = os.Stderr
	cmd.Stdin = strings.NewReader(dockerfile)

	console.Debug("$ " + strings.Join(cmd.Args, " "))
	return cmd.Run()
}

func buildCommandArgs(imageName string, options BuildOptions) []string {
	args := []string{
		"buildx", "build",
	}

	for _, k := range sortedKeys(options.BuildArgs) {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, options.BuildArgs[k]))
	}
	for _, k := range sortedKeys(options.Labels) {
		// Unlike in Dockerfiles, the value here does not need quoting -- Docker merely
		// splits on the first '=' in the argument and the rest is the label value.
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, options.Labels[k]))
	}

	if options.NoCache {
		args = append(args, "--no-cache")
	}

	if options.CacheDir != "" {
		args = append(args,
			"--cache-from", "type=local,src="+options.CacheDir,
			"--cache-to", "type=local,dest="+options.CacheDir,
		)
	} else {
		args = append(args, "--cache-to", "type=inline")
	}

	progressOutput := options.ProgressOutput
	if progressOutput == "" {
		progressOutput = "auto"
	}

	args = append(args,
		"--file", "-",
		"--tag", imageName,
		"--progress", progressOutput,
		"--load",
		".",
	)
	return args
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
