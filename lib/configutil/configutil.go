// Package configutil loads json5 configuration files with optional
// machine-local overrides, so checked-in defaults and per-developer
// secrets can live side by side.
package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// readLayer parses one json5 file into out. found is false when the
// file does not exist, which is not an error at this level.
func readLayer[T any](path string, out *T) (found bool, err error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json5.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads a configuration file, `name` should come with a file
// extension. A sibling `<name>.local.<ext>` file, when present, is
// merged on top of the checked-in defaults.
func ReadConfig[T any](name string) (T, error) {
	var out T

	base := filepath.Base(name)
	ext := filepath.Ext(base)
	localPath := filepath.Join(
		filepath.Dir(name),
		strings.TrimSuffix(base, ext)+".local"+ext,
	)

	foundDefault, err := readLayer(name, &out)
	if err != nil {
		return out, err
	}

	var override T
	foundLocal, err := readLayer(localPath, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !foundDefault && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it walks up the filesystem until the
// root to find a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var out T

	current, err := os.Getwd()
	if err != nil {
		return out, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return out, err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return out, os.ErrNotExist
		}
		current = parent
	}
}
