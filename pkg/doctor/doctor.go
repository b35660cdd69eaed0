// Package doctor checks that the local environment can run the pipeline.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/sero-rs/seropack/pkg/config"
	"github.com/sero-rs/seropack/pkg/docker"
	"github.com/sero-rs/seropack/pkg/dockerignore"
	"github.com/sero-rs/seropack/pkg/util/console"
	"github.com/sero-rs/seropack/pkg/util/files"
)

// Cache mounts need buildx with BuildKit; these are the oldest combinations
// we test against.
const (
	MinDockerVersion = "23.0.0"
	MinBuildxVersion = "0.11.0"
)

const largeFileThreshold = 100 * 1024 * 1024 // 100MB

// Check runs all environment checks and returns an error if any of them
// failed. Warnings are printed but do not fail the check.
func Check(projectDir string, cfg *config.Config) error {
	failed := false

	if err := checkEngine(); err != nil {
		console.Error(err.Error())
		failed = true
	}
	if err := checkBuildx(); err != nil {
		console.Error(err.Error())
		failed = true
	}
	if err := checkContext(projectDir, cfg); err != nil {
		console.Error(err.Error())
		failed = true
	}

	if failed {
		return fmt.Errorf("Some checks failed")
	}
	console.Info("All checks passed.")
	return nil
}

func checkEngine() error {
	engineVersion, err := docker.EngineVersion()
	if err != nil {
		return err
	}
	if err := checkMinVersion("docker engine", engineVersion, MinDockerVersion); err != nil {
		return err
	}
	console.Infof("docker engine %s ok", engineVersion)
	return nil
}

func checkBuildx() error {
	buildxVersion, err := docker.BuildxVersion()
	if err != nil {
		return err
	}
	if err := checkMinVersion("buildx", buildxVersion, MinBuildxVersion); err != nil {
		return err
	}
	console.Infof("buildx %s ok", buildxVersion)
	return nil
}

func checkMinVersion(name, have, want string) error {
	haveVersion, err := goversion.NewVersion(strings.TrimPrefix(have, "v"))
	if err != nil {
		return fmt.Errorf("Could not parse %s version %q: %w", name, have, err)
	}
	wantVersion := goversion.Must(goversion.NewVersion(want))
	if haveVersion.LessThan(wantVersion) {
		return fmt.Errorf("%s %s is too old, need at least %s", name, have, want)
	}
	return nil
}

// checkContext warns about things that bloat or confuse the build context.
// The target directory in particular should never be sent to the engine: the
// pipeline keeps build state in a cache mount.
func checkContext(projectDir string, cfg *config.Config) error {
	warnings, err := contextWarnings(projectDir, cfg)
	if err != nil {
		return err
	}
	for _, warning := range warnings {
		console.Warn(warning)
	}
	return nil
}

func contextWarnings(projectDir string, cfg *config.Config) ([]string, error) {
	var warnings []string

	// A host build at the configured artifact path is a common source of
	// "why is my image stale" confusion: the image never packages it.
	hostArtifact := filepath.Join(projectDir, filepath.FromSlash(cfg.ArtifactPath()))
	exists, err := files.Exists(hostArtifact)
	if err != nil {
		return nil, err
	}
	if exists {
		warnings = append(warnings, fmt.Sprintf("%s is a host build of %s; the image compiles its own copy inside a cache mount and never packages this one", cfg.ArtifactPath(), cfg.Binary))
	}

	matcher, err := dockerignore.CreateMatcher(projectDir)
	if err != nil {
		return nil, err
	}

	err = dockerignore.Walk(projectDir, matcher, func(path string, info os.FileInfo, err error) error {
		rel, relErr := filepath.Rel(projectDir, path)
		if relErr != nil {
			return relErr
		}
		if info.IsDir() && rel == "target" {
			warnings = append(warnings, fmt.Sprintf("%s/ is part of the build context; add it to %s, compiled state lives in a cache mount", rel, dockerignore.DockerIgnoreFilename))
			return filepath.SkipDir
		}
		if !info.IsDir() && info.Size() > largeFileThreshold {
			warnings = append(warnings, fmt.Sprintf("%s is large (%d bytes) and will slow down every build; consider adding it to %s", rel, info.Size(), dockerignore.DockerIgnoreFilename))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return warnings, nil
}
