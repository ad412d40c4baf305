package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/brogergvhs/genrescrape/internal/genrecache"

	"github.com/joho/godotenv"
)

const DefaultLabel = "Default"

var (
	ErrNoConfig     = errors.New("no config selected")
	ErrConfigExists = errors.New("config already exists")
)

func ConfigRoot() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "genrescrape")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "genrescrape")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "genrescrape")
}

// ConfigsDir holds one <label>.yaml per account or region.
func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func DefaultCachePath(backend genrecache.Backend) string {
	if backend == genrecache.BackendSQLite {
		return filepath.Join(ConfigRoot(), "genrecache.db")
	}
	return filepath.Join(ConfigRoot(), "genrecache")
}

// LoadEnv reads .env from the working directory and then from the config
// root. Variables already set win, and missing files are fine.
func LoadEnv() error {
	for _, path := range []string{".env", filepath.Join(ConfigRoot(), ".env")} {
		err := godotenv.Load(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func CurrentLabel() (string, error) {
	b, err := os.ReadFile(CurrentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}
	return label, nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}

	return ConfigPathByLabel(label)
}

func ConfigPathByLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) {
		return "", fmt.Errorf("label %q must not contain path separators", label)
	}

	return filepath.Join(ConfigsDir(), label+".yaml"), nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	entries, err := os.ReadDir(ConfigsDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	activeLabel, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".local.yaml") {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == activeLabel,
		})
	}

	slices.SortFunc(out, func(a, b ConfigInfo) int { return strings.Compare(a.Label, b.Label) })
	return out, nil
}

func SwitchConfig(label string) error {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config %q does not exist", label)
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

// CreateConfig writes cfg under label, failing with ErrConfigExists rather
// than overwriting.
func CreateConfig(label string, cfg *Config) (string, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%q: %w", label, ErrConfigExists)
	}

	if err := SaveYAML(cfg, path); err != nil {
		return "", err
	}

	return path, nil
}

// RenameConfig moves a config and its .local sibling to a new label and
// keeps it active if it was.
func RenameConfig(oldLabel, newLabel string) error {
	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}
	newPath, err := ConfigPathByLabel(newLabel)
	if err != nil {
		return err
	}

	if _, err := os.Stat(oldPath); err != nil {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("%q: %w", newLabel, ErrConfigExists)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}
	err = os.Rename(localPath(oldPath), localPath(newPath))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return os.WriteFile(CurrentLabelFile(), []byte(newLabel), 0644)
	}
	return nil
}

func RemoveConfig(label string) error {
	if label == DefaultLabel {
		return errors.New("cannot remove the Default config")
	}

	path, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config %q does not exist", label)
	}

	active, _ := CurrentLabel()
	if active == label {
		if err := SwitchConfig(DefaultLabel); err != nil {
			return fmt.Errorf("failed switching to Default: %w", err)
		}
	}

	if err := os.Remove(localPath(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Remove(path)
}

// InitDefaultConfig creates the Default config if needed and makes it
// active. An existing file is kept and reported with os.ErrExist.
func InitDefaultConfig() (string, error) {
	path, err := CreateConfig(DefaultLabel, DefaultConfig())
	switch {
	case errors.Is(err, ErrConfigExists):
		err = os.ErrExist
	case err != nil:
		return "", err
	}

	if switchErr := SwitchConfig(DefaultLabel); switchErr != nil {
		return "", switchErr
	}
	return path, err
}
