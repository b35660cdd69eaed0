package cli

import (
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/spf13/cobra"

	"github.com/sero-rs/seropack/pkg/config"
	"github.com/sero-rs/seropack/pkg/docker"
	"github.com/sero-rs/seropack/pkg/image"
	"github.com/sero-rs/seropack/pkg/util/console"
)

var pushTag string

func newPushCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Build and push a runtime image to a registry",
		Args:  cobra.NoArgs,
		RunE:  pushCommand,
	}
	addBuildFlags(cmd)
	cmd.Flags().StringVarP(&pushTag, "tag", "t", "", "A name for the pushed image in the form 'registry/repository:tag'")
	return cmd
}

func pushCommand(cmd *cobra.Command, args []string) error {
	cfg, projectDir, err := config.GetConfig(projectDirFlag)
	if err != nil {
		return err
	}

	imageRef := imageName(cfg, projectDir, pushTag)
	warnIfNotLoggedIn(imageRef)

	// build under the project's own name, then tag for the registry
	localName := imageName(cfg, projectDir, "")
	if err := image.Build(cmd.Context(), cfg, projectDir, localName, buildOptions()); err != nil {
		return err
	}
	if imageRef != localName {
		if err := docker.Tag(localName, imageRef); err != nil {
			return err
		}
	}

	if err := docker.Push(imageRef); err != nil {
		return err
	}

	console.Infof("\nImage pushed as %s", imageRef)
	return nil
}

func warnIfNotLoggedIn(imageRef string) {
	ref, err := name.ParseReference(imageRef)
	if err != nil {
		// the engine will report the bad reference itself
		return
	}
	registryHost := ref.Context().RegistryStr()
	token, err := docker.LoadLoginToken(registryHost)
	if err != nil || token == "" {
		console.Warnf("No stored credentials for %s, the push may be rejected. Try 'docker login %s' first.", registryHost, registryHost)
	}
}
