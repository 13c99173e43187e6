package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeService(&c.Radarr, "RADARR_API_KEY")
	c.normalizeService(&c.Sonarr, "SONARR_API_KEY")
	c.normalizeQBittorrent()
	c.normalizeRemediation()
	c.normalizeDaemon()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeService(svc *Service, envKey string) {
	svc.URL = strings.TrimRight(strings.TrimSpace(svc.URL), "/")
	svc.APIKey = strings.TrimSpace(svc.APIKey)
	if svc.APIKey == "" {
		if value, ok := os.LookupEnv(envKey); ok {
			svc.APIKey = strings.TrimSpace(value)
		}
	}
	if svc.RequestTimeout <= 0 {
		svc.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeQBittorrent() {
	c.QBittorrent.URL = strings.TrimRight(strings.TrimSpace(c.QBittorrent.URL), "/")
	c.QBittorrent.Username = strings.TrimSpace(c.QBittorrent.Username)
	if c.QBittorrent.Password == "" {
		if value, ok := os.LookupEnv("QBITTORRENT_PASSWORD"); ok {
			c.QBittorrent.Password = value
		}
	}
	if c.QBittorrent.RequestTimeout <= 0 {
		c.QBittorrent.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeRemediation() {
	if c.Remediation.StallThreshold <= 0 {
		c.Remediation.StallThreshold = defaultStallThreshold
	}
	if c.Remediation.MaxAttempts <= 0 {
		c.Remediation.MaxAttempts = defaultMaxAttempts
	}
	if c.Remediation.GracePeriod <= 0 {
		c.Remediation.GracePeriod = defaultGracePeriod
	}
	if c.Remediation.PassTimeout <= 0 {
		c.Remediation.PassTimeout = defaultPassTimeout
	}
	if len(c.Remediation.UnrecoverablePatterns) == 0 {
		c.Remediation.UnrecoverablePatterns = append([]string{}, defaultUnrecoverablePatterns...)
	}
	patterns := make([]string, 0, len(c.Remediation.UnrecoverablePatterns))
	for _, pattern := range c.Remediation.UnrecoverablePatterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Remediation.UnrecoverablePatterns = patterns
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.Interval == 0 {
		c.Daemon.Interval = defaultDaemonInterval
	}
	if c.Daemon.Interval < minDaemonInterval {
		c.Daemon.Interval = minDaemonInterval
	}
	if c.Daemon.Interval > maxDaemonInterval {
		c.Daemon.Interval = maxDaemonInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
