package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// dotenvFiles lists the dotenv files for mode, highest priority first.
// .env.local is not read in test mode so local overrides cannot leak into
// test runs. An empty mode has no mode specific files.
func dotenvFiles(mode string) []string {
	var files []string
	if mode != "" {
		files = append(files, ".env."+mode+".local", ".env."+mode)
	}
	if mode != "test" {
		files = append(files, ".env.local")
	}
	return append(files, ".env")
}

// LoadDotenv loads the dotenv files for mode found in dir into the process
// environment and returns the paths it loaded. Variables that are already
// set are never overwritten, so the process environment wins over every
// file and a higher priority file wins over a lower one.
func LoadDotenv(dir, mode string) ([]string, error) {
	var loaded []string

	for _, name := range dotenvFiles(mode) {
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return loaded, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}

	return loaded, nil
}
