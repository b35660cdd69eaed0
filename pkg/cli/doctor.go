package cli

import (
	"github.com/spf13/cobra"

	"github.com/sero-rs/seropack/pkg/config"
	"github.com/sero-rs/seropack/pkg/doctor"
)

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that docker, buildx and the project are ready to build",
		Args:  cobra.NoArgs,
		RunE:  doctorCommand,
	}
}

func doctorCommand(cmd *cobra.Command, args []string) error {
	// loading the config validates it
	cfg, projectDir, err := config.GetConfig(projectDirFlag)
	if err != nil {
		return err
	}
	return doctor.Check(projectDir, cfg)
}
