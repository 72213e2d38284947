package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateGeolocation(); err != nil {
		return err
	}
	if err := c.validateLocations(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRecognition() error {
	if c.Recognition.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lotscan/config.toml"
		}
		return fmt.Errorf("recognition.api_key is required. Set LOTSCAN_RECOGNITION_API_KEY env var or edit %s (create with 'lotscan config init')", defaultPath)
	}
	if c.Recognition.BaseURL == "" {
		return errors.New("recognition.base_url must be set")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.FrameCount < 1 || c.Video.FrameCount > 64 {
		return errors.New("video.frame_count must be between 1 and 64")
	}
	// ffmpeg -q:v accepts 2 (best) through 31 (worst) for mjpeg output.
	if c.Video.FrameQuality < 2 || c.Video.FrameQuality > 31 {
		return errors.New("video.frame_quality must be between 2 and 31")
	}
	return nil
}

func (c *Config) validateGeolocation() error {
	if !c.Geolocation.Enabled {
		return nil
	}
	if c.Geolocation.Latitude < -90 || c.Geolocation.Latitude > 90 {
		return errors.New("geolocation.latitude must be between -90 and 90")
	}
	if c.Geolocation.Longitude < -180 || c.Geolocation.Longitude > 180 {
		return errors.New("geolocation.longitude must be between -180 and 180")
	}
	return nil
}

func (c *Config) validateLocations() error {
	seen := make(map[string]struct{}, len(c.Locations))
	for _, loc := range c.Locations {
		key := strings.ToLower(loc.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("locations: duplicate name %q", loc.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
