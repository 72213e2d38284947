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
	c.normalizeRecognition()
	c.normalizeVideo()
	c.normalizeGeolocation()
	c.normalizeLocations()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeRecognition() {
	if c.Recognition.APIKey == "" {
		if value, ok := os.LookupEnv("LOTSCAN_RECOGNITION_API_KEY"); ok {
			c.Recognition.APIKey = value
		}
	}
	c.Recognition.APIKey = strings.TrimSpace(c.Recognition.APIKey)
	c.Recognition.BaseURL = strings.TrimSpace(c.Recognition.BaseURL)
	if c.Recognition.BaseURL == "" {
		c.Recognition.BaseURL = defaultRecognitionBaseURL
	}
	c.Recognition.Model = strings.TrimSpace(c.Recognition.Model)
	if c.Recognition.Model == "" {
		c.Recognition.Model = defaultRecognitionModel
	}
	if c.Recognition.TimeoutSeconds <= 0 {
		c.Recognition.TimeoutSeconds = defaultRecognitionTimeoutSeconds
	}
}

func (c *Config) normalizeVideo() {
	if c.Video.FrameCount <= 0 {
		c.Video.FrameCount = defaultFrameCount
	}
	if c.Video.FrameQuality <= 0 {
		c.Video.FrameQuality = defaultFrameQuality
	}
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	if c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
	if c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeGeolocation() {
	if c.Geolocation.TimeoutSeconds <= 0 {
		c.Geolocation.TimeoutSeconds = defaultGeoTimeoutSeconds
	}
}

func (c *Config) normalizeLocations() {
	cleaned := c.Locations[:0]
	for _, loc := range c.Locations {
		loc.Name = strings.TrimSpace(loc.Name)
		if loc.Name == "" {
			continue
		}
		cleaned = append(cleaned, loc)
	}
	c.Locations = cleaned
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
