package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// dotEnvFiles in priority order. godotenv never overwrites a variable that is
// already set, so the process environment wins, then .env.local, then .env.
var dotEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads the env files of the working directory
func LoadDotEnv() ([]string, error) {
	return LoadDotEnvFrom(".")
}

// LoadDotEnvFrom loads the env files found in dir and returns the ones loaded.
// A file that exists but does not parse is an error.
func LoadDotEnvFrom(dir string) ([]string, error) {
	var loaded []string
	for _, name := range dotEnvFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
