package env

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the first existing of the given .env files. ENV_PATH, when set,
// replaces the candidates. A missing file is an error only for the local environment,
// elsewhere the process environment is expected to be complete.
func LoadDotEnv(env string, paths ...string) error {
	if p := os.Getenv("ENV_PATH"); p != "" {
		paths = []string{p}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		slog.Debug("Loaded environment file", "path", p)
		return nil
	}

	if env == "local" || env == "" {
		return fmt.Errorf("no .env file found in %v: %w", paths, os.ErrNotExist)
	}
	slog.Debug("Skipping .env ...", "env", env)
	return nil
}

// IsMissing reports whether LoadDotEnv failed only because no file exists.
func IsMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
