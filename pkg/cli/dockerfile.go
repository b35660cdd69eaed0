package cli

import (
	"github.com/spf13/cobra"

	"github.com/sero-rs/seropack/pkg/config"
	"github.com/sero-rs/seropack/pkg/dockerfile"
	"github.com/sero-rs/seropack/pkg/plan"
	"github.com/sero-rs/seropack/pkg/util/console"
)

func newDockerfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dockerfile",
		Short: "Print the Dockerfile the build would use",
		Args:  cobra.NoArgs,
		RunE:  dockerfileCommand,
	}
}

func dockerfileCommand(cmd *cobra.Command, args []string) error {
	cfg, _, err := config.GetConfig(projectDirFlag)
	if err != nil {
		return err
	}

	generator, err := dockerfile.NewGenerator(plan.Compose(cfg))
	if err != nil {
		return err
	}
	contents, err := generator.Generate()
	if err != nil {
		return err
	}

	console.Output(contents)
	return nil
}
