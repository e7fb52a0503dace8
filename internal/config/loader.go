package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// envPrefix is stripped from environment variables before mapping them
	// onto config keys: SECONDBRAIN_SLACK_BOT_TOKEN -> slack.bot_token.
	envPrefix = "SECONDBRAIN_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load loads configuration with the standard precedence
// (highest to lowest):
//
//  1. Environment variables (SECONDBRAIN_*)
//  2. YAML config file (configPath; skipped when empty or absent)
//  3. Defaults (NewDefaultConfig)
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	cfg := NewDefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := readConfigFile(configPath)
			if err != nil {
				return nil, err
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// envTransformer maps SECONDBRAIN_SLACK_BOT_TOKEN to slack.bot_token.
//
// Only the first underscore splits section from leaf, so leaf names that
// themselves contain underscores (bot_token, inbox_channel_id) survive.
// The notion.databases map nests one level deeper and is special-cased:
// SECONDBRAIN_NOTION_DATABASES_INBOX_LOG -> notion.databases.inbox_log.
func envTransformer(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)

	// First segment is the config section; the rest is the leaf key.
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}

	section, rest := parts[0], parts[1]

	// The databases map nests one level deeper than other sections.
	if section == "notion" && strings.HasPrefix(rest, "databases_") {
		return "notion.databases." + strings.TrimPrefix(rest, "databases_")
	}

	return section + "." + rest
}

// readConfigFile reads the config file, enforcing the size limit.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
