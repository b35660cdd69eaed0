package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sero-rs/seropack/pkg/dockerignore"
	"github.com/sero-rs/seropack/pkg/global"
	"github.com/sero-rs/seropack/pkg/util/console"
	"github.com/sero-rs/seropack/pkg/util/files"
)

var initConfig = `# Configuration for seropack
# binary: sero
# image: registry.example.com/sero
build:
  profile: release
# run:
#   uid: 10001
#   gid: 10001
`

var initDockerIgnore = `target/
.git/
`

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + global.ConfigFilename + " into the current directory",
		Args:  cobra.NoArgs,
		RunE:  initCommand,
	}
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	written, err := files.WriteIfNotExists(filepath.Join(cwd, global.ConfigFilename), []byte(initConfig), 0o644)
	if err != nil {
		return err
	}
	if !written {
		return fmt.Errorf("%s already exists in %s", global.ConfigFilename, cwd)
	}
	console.Infof("Wrote %s", global.ConfigFilename)

	written, err = files.WriteIfNotExists(filepath.Join(cwd, dockerignore.DockerIgnoreFilename), []byte(initDockerIgnore), 0o644)
	if err != nil {
		return err
	}
	if written {
		console.Infof("Wrote %s", dockerignore.DockerIgnoreFilename)
	}

	return nil
}
