package main

import (
	"github.com/sero-rs/seropack/pkg/cli"
	"github.com/sero-rs/seropack/pkg/util/console"
)

func main() {
	cmd, err := cli.NewRootCommand()
	if err != nil {
		console.Fatalf("%s", err)
	}

	if err = cmd.Execute(); err != nil {
		console.Fatalf("%s", err)
	}
}
