package cli

import (
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/spf13/cobra"

	"github.com/sero-rs/seropack/pkg/config"
	"github.com/sero-rs/seropack/pkg/docker"
	"github.com/sero-rs/seropack/pkg/image"
	"github.com/sero-rs/seropack/pkg/util/console"
	"github.com/sero-rs/seropack/pkg/verify"
)

var verifyTarball string
var verifyUID int
var verifyGID int

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [IMAGE]",
		Short: "Check that a built image has the structure the pipeline guarantees",
		Args:  cobra.MaximumNArgs(1),
		RunE:  verifyCommand,
	}
	cmd.Flags().StringVar(&verifyTarball, "tarball", "", "Verify an image from a 'docker save' tarball instead of the engine")
	cmd.Flags().IntVar(&verifyUID, "uid", 0, "Numeric uid the image was built with, overrides the config")
	cmd.Flags().IntVar(&verifyGID, "gid", 0, "Numeric gid the image was built with, overrides the config")
	return cmd
}

func verifyCommand(cmd *cobra.Command, args []string) error {
	cfg, projectDir, err := config.GetConfig(projectDirFlag)
	if err != nil {
		return err
	}

	var img v1.Image
	ref := ""
	switch {
	case verifyTarball != "":
		ref = verifyTarball
		img, err = verify.ImageFromTarball(verifyTarball)
	case len(args) == 1:
		ref = args[0]
		img, err = verify.ImageFromDaemon(args[0])
	default:
		ref = imageName(cfg, projectDir, "")
		img, err = verify.ImageFromDaemon(ref)
	}
	if err != nil {
		return err
	}

	// Images we built record their config in a label; prefer that over the
	// project config, which may have changed since the build.
	if verifyTarball == "" {
		if recorded, ok := recordedConfig(ref); ok {
			cfg = recorded
		}
	}

	opts := image.VerifyOptions(cfg, image.Options{UID: verifyUID, GID: verifyGID})
	if err := verify.Image(cmd.Context(), img, opts); err != nil {
		return err
	}

	console.Infof("%s ok", ref)
	return nil
}

func recordedConfig(ref string) (*config.Config, bool) {
	resp, err := docker.Inspect(ref)
	if err != nil || resp.Config == nil {
		return nil, false
	}
	return image.ConfigFromLabels(resp.Config.Labels)
}
