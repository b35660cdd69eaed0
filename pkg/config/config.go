package config

import (
	"bytes"
	"fmt"
	"path"
	"regexp"

	"sigs.k8s.io/yaml"

	"github.com/sero-rs/seropack/pkg/global"
)

// Build describes the build stage: the toolchain image, the static-link
// target and the packages the compiler needs.
type Build struct {
	Profile      string   `json:"profile,omitempty"`
	BuilderImage string   `json:"builder_image,omitempty"`
	Target       string   `json:"target,omitempty"`
	Packages     []string `json:"packages,omitempty"`
}

// Run describes the runtime identity and layout of the packaged image.
type Run struct {
	UID         int    `json:"uid,omitempty"`
	GID         int    `json:"gid,omitempty"`
	User        string `json:"user,omitempty"`
	InstallPath string `json:"install_path,omitempty"`
}

type Config struct {
	Binary string `json:"binary,omitempty"`
	Image  string `json:"image,omitempty"`
	Build  *Build `json:"build,omitempty"`
	Run    *Run   `json:"run,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Binary: "sero",
		Build: &Build{
			Profile:      global.DefaultProfile,
			BuilderImage: "rust:1-alpine",
			Target:       "x86_64-unknown-linux-musl",
			Packages:     []string{"musl-dev", "openssl-dev", "pkgconf", "ca-certificates"},
		},
		Run: &Run{
			UID:         global.DefaultUID,
			GID:         global.DefaultGID,
			InstallPath: "/usr/local/bin",
		},
	}
}

// FromYAML parses YAML content into a Config. The caller should call
// ValidateAndComplete on the result before using it.
func FromYAML(contents []byte) (*Config, error) {
	if len(bytes.TrimSpace(contents)) == 0 {
		return &Config{}, nil
	}
	if err := Validate(string(contents), defaultVersion); err != nil {
		return nil, err
	}
	config := &Config{}
	if err := yaml.UnmarshalStrict(contents, config); err != nil {
		return nil, fmt.Errorf("Failed to parse config yaml: %w", err)
	}
	return config, nil
}

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidateAndComplete fills in defaults for unset fields and checks the
// semantic constraints the schema cannot express.
func (c *Config) ValidateAndComplete() error {
	defaults := DefaultConfig()

	if c.Binary == "" {
		c.Binary = defaults.Binary
	}
	if c.Build == nil {
		c.Build = defaults.Build
	}
	if c.Run == nil {
		c.Run = defaults.Run
	}
	if c.Build.Profile == "" {
		c.Build.Profile = defaults.Build.Profile
	}
	if c.Build.BuilderImage == "" {
		c.Build.BuilderImage = defaults.Build.BuilderImage
	}
	if c.Build.Target == "" {
		c.Build.Target = defaults.Build.Target
	}
	if c.Build.Packages == nil {
		c.Build.Packages = defaults.Build.Packages
	}
	if c.Run.UID == 0 {
		c.Run.UID = defaults.Run.UID
	}
	if c.Run.GID == 0 {
		c.Run.GID = defaults.Run.GID
	}
	if c.Run.User == "" {
		c.Run.User = c.Binary
	}
	if c.Run.InstallPath == "" {
		c.Run.InstallPath = defaults.Run.InstallPath
	}

	if !nameRegex.MatchString(c.Binary) {
		return fmt.Errorf("Invalid binary name %q", c.Binary)
	}
	if !nameRegex.MatchString(c.Build.Profile) {
		return fmt.Errorf("Invalid build profile %q", c.Build.Profile)
	}
	if !nameRegex.MatchString(c.Run.User) {
		return fmt.Errorf("Invalid runtime user name %q", c.Run.User)
	}
	// The runtime identity must not resolve to root. This is the point of
	// creating a user at all.
	if c.Run.UID < 1 || c.Run.UID > 1<<31-1 {
		return fmt.Errorf("Runtime uid must be a positive 32-bit integer, got %d", c.Run.UID)
	}
	if c.Run.GID < 1 || c.Run.GID > 1<<31-1 {
		return fmt.Errorf("Runtime gid must be a positive 32-bit integer, got %d", c.Run.GID)
	}
	if !path.IsAbs(c.Run.InstallPath) {
		return fmt.Errorf("Install path must be absolute, got %q", c.Run.InstallPath)
	}
	return nil
}

// ArtifactDir returns the cargo output directory for the configured profile,
// relative to the target triple directory. cargo writes the dev profile to
// "debug"; every other profile gets a directory of its own name.
func (c *Config) ArtifactDir() string {
	if c.Build.Profile == "dev" || c.Build.Profile == "debug" {
		return "debug"
	}
	return c.Build.Profile
}

// ArtifactPath returns the path of the compiled binary inside the build
// stage, relative to the source directory.
func (c *Config) ArtifactPath() string {
	return path.Join("target", c.Build.Target, c.ArtifactDir(), c.Binary)
}

// InstalledPath returns the absolute path of the binary in the runtime image.
func (c *Config) InstalledPath() string {
	return path.Join(c.Run.InstallPath, c.Binary)
}
