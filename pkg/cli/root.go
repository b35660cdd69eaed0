package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sero-rs/seropack/pkg/config"
	"github.com/sero-rs/seropack/pkg/global"
	"github.com/sero-rs/seropack/pkg/util/console"
)

var projectDirFlag string

func NewRootCommand() (*cobra.Command, error) {
	rootCmd := cobra.Command{
		Use:     "seropack",
		Short:   "Compile a static binary and package it into a minimal runtime image",
		Version: fmt.Sprintf("%s (built %s)", global.Version, global.BuildTime),
		// This stops errors being printed because we print them in cmd/seropack/main.go
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if global.Verbose {
				console.SetLevel(console.DebugLevel)
			}
			cmd.SilenceUsage = true
		},
		SilenceErrors: true,
	}
	setPersistentFlags(&rootCmd)

	rootCmd.AddCommand(
		newBuildCommand(),
		newPushCommand(),
		newDockerfileCommand(),
		newVerifyCommand(),
		newInitCommand(),
		newDoctorCommand(),
	)

	return &rootCmd, nil
}

func setPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().StringVar(&projectDirFlag, "project-dir", "", "Project directory, defaults to the nearest parent directory containing "+global.ConfigFilename)
}

// imageName resolves the name for a built image: the --tag flag wins, then
// the config's image field, then a name derived from the project directory.
func imageName(cfg *config.Config, projectDir, tagFlag string) string {
	if tagFlag != "" {
		return tagFlag
	}
	if cfg.Image != "" {
		return cfg.Image
	}
	return config.DockerImageName(projectDir)
}
