package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gregLibert/chipcard/pkg/iso7816"
	"github.com/gregLibert/chipcard/pkg/seccos"
	"github.com/gregLibert/chipcard/pkg/terminal"
)

type config struct {
	Reader       terminal.ReaderConfig
	Class        iso7816.Class
	MaxResponse  int
	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
	Image        string
}

type fileConfig struct {
	Reader       string `toml:"reader"`
	Share        string `toml:"share"`
	Protocol     string `toml:"protocol"`
	Class        string `toml:"cla"`
	MaxResponse  int    `toml:"max_response"`
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	LogMaxSizeMB int    `toml:"log_max_size_mb"`
	Image        string `toml:"image"`
}

func defaultConfig() config {
	return config{
		Reader: terminal.ReaderConfig{
			Share:    "shared",
			Protocol: "any",
		},
		Class:        iso7816.StandardClass,
		MaxResponse:  seccos.DefaultMaxResponseSize,
		LogLevel:     "info",
		LogMaxSizeMB: 10,
	}
}

// loadConfig applies the keys present in the TOML file at path over the
// defaults. An empty path returns the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load chipcard config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load chipcard config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("reader") {
		cfg.Reader.Name = strings.TrimSpace(raw.Reader)
	}

	if meta.IsDefined("share") {
		cfg.Reader.Share = strings.TrimSpace(raw.Share)
	}

	if meta.IsDefined("protocol") {
		cfg.Reader.Protocol = strings.TrimSpace(raw.Protocol)
	}

	if meta.IsDefined("cla") {
		cls, err := iso7816.ParseClassHex(raw.Class)
		if err != nil {
			return config{}, err
		}
		cfg.Class = cls
	}

	if meta.IsDefined("max_response") {
		if raw.MaxResponse < 2 {
			return config{}, fmt.Errorf("max_response must be at least 2, got %d", raw.MaxResponse)
		}
		cfg.MaxResponse = raw.MaxResponse
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}

	if meta.IsDefined("log_max_size_mb") {
		if raw.LogMaxSizeMB <= 0 {
			return config{}, fmt.Errorf("log_max_size_mb must be positive, got %d", raw.LogMaxSizeMB)
		}
		cfg.LogMaxSizeMB = raw.LogMaxSizeMB
	}

	if meta.IsDefined("image") {
		cfg.Image = strings.TrimSpace(raw.Image)
	}

	return cfg, nil
}
