package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ACTIOND_"

const maxConfigFileSize = 1 << 20

// DefaultPath returns ~/.config/actiond/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "actiond", "config.yaml"), nil
}

// LoadWithFile builds the configuration from three layers, later layers
// winning: built-in defaults, the YAML file, then ACTIOND_* variables.
//
// An empty path means DefaultPath, which is allowed to be missing. A path
// given explicitly must exist. Either way the file must be a regular file
// of at most 1MB readable only by its owner (0600 or 0400), since it may
// hold the NATS token.
//
// Environment names drop the prefix and split once on underscore:
//
//	ACTIOND_SERVER_PORT                    server.port
//	ACTIOND_OBSERVABILITY_ENABLE_TELEMETRY observability.enable_telemetry
//	ACTIOND_WATCH_DIR                      watch.dir
func LoadWithFile(path string) (*Config, error) {
	optional := path == ""
	if optional {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	k := koanf.New(".")

	raw, err := readConfigFile(path)
	if err != nil && !(optional && errors.Is(err, fs.ErrNotExist)) {
		return nil, err
	}
	if raw != nil {
		if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("reading %s* environment: %w", EnvPrefix, err)
	}

	cfg := new(Config)
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func envKey(name string) string {
	section, field, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_")
	if !ok {
		return section
	}
	return section + "." + field
}

// readConfigFile checks and reads the same open descriptor, so the file
// cannot be swapped between the check and the read.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if err := checkConfigFile(info); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	raw, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return raw, nil
}

func checkConfigFile(info fs.FileInfo) error {
	if !info.Mode().IsRegular() {
		return errors.New("config path is not a regular file")
	}
	if perm := info.Mode().Perm(); runtime.GOOS != "windows" && perm&0o077 != 0 {
		return fmt.Errorf("insecure config file permissions %v, want 0600 or 0400", perm)
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes, limit %d", info.Size(), maxConfigFileSize)
	}
	return nil
}

// EnsureConfigDir creates the directory holding DefaultPath with 0700
// permissions.
func EnsureConfigDir() error {
	p, err := DefaultPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return nil
}
