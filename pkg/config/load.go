package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/sero-rs/seropack/pkg/errors"
	"github.com/sero-rs/seropack/pkg/global"
	"github.com/sero-rs/seropack/pkg/util/files"
)

const maxSearchDepth = 100

// GetConfig loads and validates the project config. If projectDir is empty
// the project root is found by walking up from the current working directory.
// Returns the config and the project root directory.
func GetConfig(projectDir string) (*Config, string, error) {
	rootDir, err := GetProjectDir(projectDir)
	if err != nil {
		return nil, "", err
	}

	configPath := path.Join(rootDir, global.ConfigFilename)
	config, err := loadConfigFromFile(configPath)
	if err != nil {
		return nil, "", err
	}

	if err := config.ValidateAndComplete(); err != nil {
		return nil, "", err
	}
	return config, rootDir, nil
}

// GetProjectDir returns the project's root directory, or the directory
// specified by the --project-dir flag.
func GetProjectDir(projectDir string) (string, error) {
	if projectDir != "" {
		return filepath.Abs(projectDir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findProjectRootDir(cwd)
}

// Given a file path, attempt to load a config from that file
func loadConfigFromFile(file string) (*Config, error) {
	exists, err := files.Exists(file)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s does not exist in %s. Are you in the right directory?", filepath.Base(file), filepath.Dir(file))
	}

	contents, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return FromYAML(contents)
}

// Given a directory, find the project config file in that directory
func findConfigPathInDirectory(dir string) (configPath string, err error) {
	filePath := path.Join(dir, global.ConfigFilename)
	exists, err := files.Exists(filePath)
	if err != nil {
		return "", fmt.Errorf("Failed to scan directory %s for %s: %w", dir, filePath, err)
	} else if exists {
		return filePath, nil
	}

	return "", errors.ConfigNotFound(fmt.Sprintf("%s not found in %s", global.ConfigFilename, dir))
}

// Walk up the directory tree to find the config file
func findProjectRootDir(startDir string) (string, error) {
	dir := startDir
	for i := 0; i < maxSearchDepth; i++ {
		switch _, err := findConfigPathInDirectory(dir); {
		case err != nil && !errors.IsConfigNotFound(err):
			return "", err
		case err == nil:
			return dir, nil
		case dir == "." || dir == "/":
			return "", errors.ConfigNotFound(fmt.Sprintf("%s not found in %s (or in any parent directories)", global.ConfigFilename, startDir))
		}
		dir = filepath.Dir(dir)
	}

	return "", errors.ConfigNotFound(global.ConfigFilename + " not found, exceeded max search depth")
}
