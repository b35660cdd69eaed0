package docker

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/docker/cli/cli/config"
	"github.com/docker/cli/cli/config/configfile"

	"github.com/sero-rs/seropack/pkg/util/console"
)

// CredentialHelperInput is the wire format of docker credential helpers.
type CredentialHelperInput struct {
	Username  string `json:"Username"`
	Secret    string `json:"Secret"`
	ServerURL string `json:"ServerURL"`
}

// LoadLoginToken returns the stored registry credential for a host, from the
// docker CLI config or its configured credential helper. An empty string
// means the user is not logged in to that registry.
func LoadLoginToken(registryHost string) (string, error) {
	conf := config.LoadDefaultConfigFile(os.Stderr)
	credsStore := conf.CredentialsStore
	if credsStore == "" {
		return loadAuthFromConfig(conf, registryHost)
	}
	return loadAuthFromCredentialsStore(credsStore, registryHost)
}

func loadAuthFromConfig(conf *configfile.ConfigFile, registryHost string) (string, error) {
	return conf.AuthConfigs[registryHost].Password, nil
}

func loadAuthFromCredentialsStore(credsStore string, registryHost string) (string, error) {
	var out strings.Builder
	cmd := exec.Command("docker-credential-"+credsStore, "get")
	cmd.Env = os.Environ()
	cmd.Stdout = &out
	cmd.Stderr = &out
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", err
	}
	defer stdin.Close()
	console.Debug("$ " + strings.Join(cmd.Args, " "))
	if err := cmd.Start(); err != nil {
		return "", err
	}
	if _, err := io.WriteString(stdin, registryHost); err != nil {
		return "", err
	}
	if err := stdin.Close(); err != nil {
		return "", err
	}
	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("exec wait error: %w", err)
	}

	var helperOutput CredentialHelperInput
	if err := json.Unmarshal([]byte(out.String()), &helperOutput); err != nil {
		return "", err
	}

	return helperOutput.Secret, nil
}
