package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

const configFileName = "gitobj.toml"

// Config stores repository-local settings.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig is the default author and committer identity.
type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// CoreConfig holds store settings.
type CoreConfig struct {
	// Compression is the zlib level for new objects, -1 through 9.
	Compression *int `toml:"compression,omitempty"`
}

func configPath(gitDir string) string {
	return filepath.Join(gitDir, configFileName)
}

// ReadConfig reads .git/gitobj.toml. Missing config returns an empty config.
func (r *Repo) ReadConfig() (*Config, error) {
	return readConfigFile(configPath(r.GitDir))
}

func readConfigFile(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}

// WriteConfig atomically writes .git/gitobj.toml.
func (r *Repo) WriteConfig(cfg *Config) (retErr error) {
	if cfg == nil {
		cfg = &Config{}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(r.GitDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if retErr != nil {
			retErr = multierr.Append(retErr, removeIfExists(tmpName))
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return multierr.Append(fmt.Errorf("write config: write: %w", err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, configPath(r.GitDir)); err != nil {
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// SetUser stores the default identity in repository config.
func (r *Repo) SetUser(name, email string) error {
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.User = UserConfig{Name: name, Email: email}
	return r.WriteConfig(cfg)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
