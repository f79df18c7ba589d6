package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileName is the name of the environment variables file inside Dir.
const EnvFileName = ".env"

// LoadDotEnv loads environment variables from <baseDir>/.relwatch/.env.
// Variables already present in the environment win over the file.
// A missing file is not an error.
func LoadDotEnv(baseDir string) error {
	envPath := filepath.Join(baseDir, Dir, EnvFileName)

	if _, err := os.Stat(envPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(envPath)
}
