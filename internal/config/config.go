package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v3"

	"github.com/whatson-app/whatson-cli/internal/api"
	"github.com/whatson-app/whatson-cli/internal/helpers"
	"github.com/whatson-app/whatson-cli/internal/model"
)

// LoadedConfigPath tracks which config file was loaded so WriteConfig can
// save to the same location.
var LoadedConfigPath string

// configPaths lists the locations probed for config.json, in order.
func configPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{
		"config.json",
		filepath.Join(homeDir, ".whatson", "config.json"),
		filepath.Join(homeDir, ".config", "whatson", "config.json"),
	}, nil
}

// ReadConfig reads the config file from known locations. When none exists a
// default config is returned (and not written): the CLI works out of the box
// against the production backend.
func ReadConfig() (*model.Config, error) {
	paths, err := configPaths()
	if err != nil {
		return nil, err
	}

	var data []byte
	for _, path := range paths {
		data, err = os.ReadFile(path)
		if err == nil {
			LoadedConfigPath = path
			break
		}
	}

	if data == nil {
		return defaultConfig(), nil
	}

	var cfg model.Config
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config at %s: %w", LoadedConfigPath, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *model.Config {
	cfg := &model.Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *model.Config) {
	if strings.TrimSpace(cfg.APIBase) == "" {
		cfg.APIBase = api.DefaultAPIBase
	}
	if cfg.Locale == "" {
		cfg.Locale = "en-GB"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = api.DefaultQueryLimit
	}
	if cfg.DebounceMs <= 0 {
		cfg.DebounceMs = 250
	}
	if cfg.FallbackTimezone == "" {
		cfg.FallbackTimezone = model.DefaultTimezone
	}
}

// ParseArgs parses CLI arguments using go-arg.
func ParseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}

// ParseCfg reads config, parses CLI args, and returns the resolved Config
// plus the parsed args. Args override file values.
func ParseCfg() (*model.Config, *model.Args, error) {
	cfg, err := ReadConfig()
	if err != nil {
		return nil, nil, err
	}
	args := ParseArgs()
	if args.Limit > 0 {
		cfg.Limit = args.Limit
	}
	if args.JSON {
		cfg.JSONLevel = model.JSONLevelStandard
	}
	cfg.HomeTown = helpers.SanitizeSlug(cfg.HomeTown)
	return cfg, args, nil
}

// WriteConfig writes the config back to the file it was loaded from, or to
// ~/.config/whatson/config.json on first save.
func WriteConfig(cfg *model.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	targetPath := LoadedConfigPath
	if targetPath == "" {
		paths, err := configPaths()
		if err != nil {
			return err
		}
		targetPath = paths[len(paths)-1]
	}

	if dir := filepath.Dir(targetPath); dir != "." {
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, mkErr)
		}
	}
	if err = os.WriteFile(targetPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", targetPath, err)
	}
	LoadedConfigPath = targetPath
	return nil
}

// keywordOverrides is the keywords.yaml document shape.
type keywordOverrides struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadKeywordOverrides reads the optional keywords.yaml next to the loaded
// config file. The overlay extends the built-in category keyword families;
// it can never remove them. A missing file yields an empty map.
func LoadKeywordOverrides() (map[string][]string, error) {
	paths, err := configPaths()
	if err != nil {
		return nil, err
	}
	var candidates []string
	if LoadedConfigPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(LoadedConfigPath), "keywords.yaml"))
	}
	for _, p := range paths {
		candidates = append(candidates, filepath.Join(filepath.Dir(p), "keywords.yaml"))
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var doc keywordOverrides
		if err = yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return doc.Categories, nil
	}
	return map[string][]string{}, nil
}
