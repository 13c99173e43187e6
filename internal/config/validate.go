package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if !c.Radarr.Enabled && !c.Sonarr.Enabled {
		return errors.New("at least one of radarr or sonarr must be enabled")
	}
	if err := c.validateService("radarr", c.Radarr); err != nil {
		return err
	}
	if err := c.validateService("sonarr", c.Sonarr); err != nil {
		return err
	}
	if err := c.validateQBittorrent(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateService(name string, svc Service) error {
	if !svc.Enabled {
		return nil
	}
	if strings.TrimSpace(svc.URL) == "" {
		return fmt.Errorf("%s.url must be set when %s.enabled is true", name, name)
	}
	if _, err := url.ParseRequestURI(svc.URL); err != nil {
		return fmt.Errorf("%s.url: %w", name, err)
	}
	if svc.APIKey == "" {
		return fmt.Errorf("%s.api_key is required. Set %s_API_KEY env var or edit the config file", name, strings.ToUpper(name))
	}
	return nil
}

func (c *Config) validateQBittorrent() error {
	if !c.QBittorrent.Enabled {
		return nil
	}
	if strings.TrimSpace(c.QBittorrent.URL) == "" {
		return errors.New("qbittorrent.url must be set when qbittorrent.enabled is true")
	}
	if _, err := url.ParseRequestURI(c.QBittorrent.URL); err != nil {
		return fmt.Errorf("qbittorrent.url: %w", err)
	}
	return nil
}

func (c *Config) validateCleanup() error {
	if !c.Cleanup.Enabled {
		return nil
	}
	if !c.QBittorrent.Enabled {
		return errors.New("cleanup.enabled requires qbittorrent.enabled")
	}
	if c.Cleanup.MinRatio < 0 {
		return errors.New("cleanup.min_ratio must not be negative")
	}
	if c.Cleanup.MinSeedingSeconds < 0 {
		return errors.New("cleanup.min_seeding_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
