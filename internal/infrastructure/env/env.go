package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const defaultAppEnv = "dev"

// Result tells what Load picked up, for logging once the logger exists.
type Result struct {
	AppEnv string
	Loaded []string
}

// Load reads dir/.env and then dir/.env.<APP_ENV>, the latter overriding.
// Missing files are fine; real shell variables always win over .env but
// not over .env.<APP_ENV>.
func Load(dir string) (Result, error) {
	res := Result{AppEnv: AppEnv()}

	base := filepath.Join(dir, ".env")
	switch err := godotenv.Load(base); {
	case err == nil:
		res.Loaded = append(res.Loaded, base)
	case !errors.Is(err, fs.ErrNotExist):
		return res, fmt.Errorf("load %s: %w", base, err)
	}

	envFile := filepath.Join(dir, ".env."+res.AppEnv)
	switch err := godotenv.Overload(envFile); {
	case err == nil:
		res.Loaded = append(res.Loaded, envFile)
	case !errors.Is(err, fs.ErrNotExist):
		return res, fmt.Errorf("load %s: %w", envFile, err)
	}

	return res, nil
}

func AppEnv() string {
	if v := os.Getenv("APP_ENV"); v != "" {
		return v
	}
	return defaultAppEnv
}
