package docker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCommandArgsDefault(t *testing.T) {
	args := buildCommandArgs("sero-proxy", BuildOptions{})
	require.Equal(t, []string{
		"buildx", "build",
		"--cache-to", "type=inline",
		"--file", "-",
		"--tag", "sero-proxy",
		"--progress", "auto",
		"--load",
		".",
	}, args)
}

func TestBuildCommandArgsBuildArgsAndLabelsSorted(t *testing.T) {
	args := buildCommandArgs("sero-proxy", BuildOptions{
		BuildArgs: map[string]string{
			"UID":     "4242",
			"PROFILE": "release",
			"GID":     "4242",
		},
		Labels: map[string]string{
			"rs.sero.seropack.version": "0.1.0",
			"rs.sero.seropack.config":  `{"binary":"sero"}`,
		},
	})
	require.Equal(t, []string{
		"buildx", "build",
		"--build-arg", "GID=4242",
		"--build-arg", "PROFILE=release",
		"--build-arg", "UID=4242",
		"--label", `rs.sero.seropack.config={"binary":"sero"}`,
		"--label", "rs.sero.seropack.version=0.1.0",
		"--cache-to", "type=inline",
		"--file", "-",
		"--tag", "sero-proxy",
		"--progress", "auto",
		"--load",
		".",
	}, args)
}

func TestBuildCommandArgsNoCache(t *testing.T) {
	args := buildCommandArgs("sero-proxy", BuildOptions{NoCache: true})
	require.Contains(t, args, "--no-cache")
}

func TestBuildCommandArgsCacheDir(t *testing.T) {
	args := buildCommandArgs("sero-proxy", BuildOptions{CacheDir: "/tmp/build-cache"})
	require.Contains(t, args, "--cache-from")
	require.Contains(t, args, "type=local,src=/tmp/build-cache")
	require.Contains(t, args, "type=local,dest=/tmp/build-cache")
	require.NotContains(t, args, "type=inline")
}

func TestBuildCommandArgsProgressOutput(t *testing.T) {
	args := buildCommandArgs("sero-proxy", BuildOptions{ProgressOutput: "plain"})
	require.Contains(t, args, "plain")
	require.NotContains(t, args, "auto")
}
