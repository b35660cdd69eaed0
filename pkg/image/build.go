// Package image orchestrates the pipeline: config to plan, plan to
// Dockerfile, Dockerfile to a built and verified runtime image. Any step
// failing aborts the whole build; an unfinished build never produces an
// image.
package image

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sero-rs/seropack/pkg/config"
	"github.com/sero-rs/seropack/pkg/docker"
	"github.com/sero-rs/seropack/pkg/dockerfile"
	"github.com/sero-rs/seropack/pkg/global"
	"github.com/sero-rs/seropack/pkg/plan"
	"github.com/sero-rs/seropack/pkg/util/console"
	"github.com/sero-rs/seropack/pkg/verify"
)

// Options are per-invocation overrides of the config's build parameters.
type Options struct {
	// Profile, UID and GID override the config when non-zero. They are
	// passed to the engine as build args.
	Profile string
	UID     int
	GID     int

	NoCache        bool
	CacheDir       string
	ProgressOutput string

	// NoVerify skips structural verification of the built image.
	NoVerify bool
}

// Build runs the two-stage pipeline and tags the result as imageName.
func Build(ctx context.Context, cfg *config.Config, dir, imageName string, options Options) error {
	p := plan.Compose(cfg)
	generator, err := dockerfile.NewGenerator(p)
	if err != nil {
		return err
	}
	contents, err := generator.Generate()
	if err != nil {
		return fmt.Errorf("Failed to generate Dockerfile: %w", err)
	}

	labels, err := buildLabels(cfg)
	if err != nil {
		return err
	}

	buildArgs := map[string]string{}
	if options.Profile != "" {
		buildArgs["PROFILE"] = options.Profile
	}
	if options.UID != 0 {
		buildArgs["UID"] = strconv.Itoa(options.UID)
	}
	if options.GID != 0 {
		buildArgs["GID"] = strconv.Itoa(options.GID)
	}

	if err := docker.Build(dir, contents, imageName, docker.BuildOptions{
		BuildArgs:      buildArgs,
		Labels:         labels,
		NoCache:        options.NoCache,
		CacheDir:       options.CacheDir,
		ProgressOutput: options.ProgressOutput,
	}); err != nil {
		return err
	}

	exists, err := docker.ImageExists(imageName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("Build succeeded but %s was not loaded into the engine", imageName)
	}

	if options.NoVerify {
		return nil
	}

	console.Debugf("Verifying %s", imageName)
	img, err := verify.ImageFromDaemon(imageName)
	if err != nil {
		return err
	}
	return verify.Image(ctx, img, VerifyOptions(cfg, options))
}

// VerifyOptions resolves the effective runtime contract of a build, taking
// per-invocation overrides into account.
func VerifyOptions(cfg *config.Config, options Options) verify.Options {
	opts := verify.Options{
		Binary: cfg.InstalledPath(),
		UID:    cfg.Run.UID,
		GID:    cfg.Run.GID,
		User:   cfg.Run.User,
	}
	if options.UID != 0 {
		opts.UID = options.UID
	}
	if options.GID != 0 {
		opts.GID = options.GID
	}
	return opts
}

func buildLabels(cfg *config.Config) (map[string]string, error) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("Failed to serialize config: %w", err)
	}
	return map[string]string{
		global.LabelNamespace + "version": global.Version,
		global.LabelNamespace + "config":  string(configJSON),
	}, nil
}

// ConfigFromLabels recovers the config a build recorded on its image, so an
// image can be verified against the parameters it was actually built with.
func ConfigFromLabels(labels map[string]string) (*config.Config, bool) {
	raw, ok := labels[global.LabelNamespace+"config"]
	if !ok {
		return nil, false
	}
	cfg := &config.Config{}
	if err := json.Unmarshal([]byte(raw), cfg); err != nil {
		return nil, false
	}
	if err := cfg.ValidateAndComplete(); err != nil {
		return nil, false
	}
	return cfg, true
}
