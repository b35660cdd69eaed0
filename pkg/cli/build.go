package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sero-rs/seropack/pkg/config"
	"github.com/sero-rs/seropack/pkg/global"
	"github.com/sero-rs/seropack/pkg/image"
	"github.com/sero-rs/seropack/pkg/util/console"
)

var buildTag string
var buildProfile string
var buildUID int
var buildGID int
var buildNoCache bool
var buildCacheDir string
var buildProgressOutput string
var buildNoVerify bool

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a runtime image from " + global.ConfigFilename,
		Args:  cobra.NoArgs,
		RunE:  buildCommand,
	}
	addBuildFlags(cmd)
	cmd.Flags().StringVarP(&buildTag, "tag", "t", "", "A name for the built image in the form 'repository:tag'")
	return cmd
}

func buildCommand(cmd *cobra.Command, args []string) error {
	cfg, projectDir, err := config.GetConfig(projectDirFlag)
	if err != nil {
		return err
	}

	name := imageName(cfg, projectDir, buildTag)
	if err := image.Build(cmd.Context(), cfg, projectDir, name, buildOptions()); err != nil {
		return err
	}

	console.Infof("\nImage built as %s", name)
	return nil
}

func buildOptions() image.Options {
	return image.Options{
		Profile:        buildProfile,
		UID:            buildUID,
		GID:            buildGID,
		NoCache:        buildNoCache,
		CacheDir:       buildCacheDir,
		ProgressOutput: buildProgressOutput,
		NoVerify:       buildNoVerify,
	}
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&buildProfile, "profile", "", "Build profile that selects the compiled output directory, overrides the config")
	cmd.Flags().IntVar(&buildUID, "uid", 0, "Numeric uid for the runtime user, overrides the config")
	cmd.Flags().IntVar(&buildGID, "gid", 0, "Numeric gid for the runtime group, overrides the config")
	cmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "Do not use the engine layer cache when building the image")
	cmd.Flags().StringVar(&buildCacheDir, "cache-dir", "", "Local directory for buildx cache import/export")
	cmd.Flags().BoolVar(&buildNoVerify, "no-verify", false, "Skip structural verification of the built image")
	addBuildProgressOutputFlag(cmd)
}

func addBuildProgressOutputFlag(cmd *cobra.Command) {
	defaultOutput := "auto"
	if os.Getenv("TERM") == "dumb" {
		defaultOutput = "plain"
	}
	cmd.Flags().StringVar(&buildProgressOutput, "progress", defaultOutput, "Set type of build progress output, 'auto' (default), 'tty' or 'plain'")
}
