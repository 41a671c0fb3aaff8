package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateExiftool(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return errors.New("paths.source_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DestDir) == "" {
		return errors.New("paths.dest_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.DestDir {
		return errors.New("paths.dest_dir must differ from paths.source_dir")
	}
	if strings.HasPrefix(c.Paths.DestDir+"/", c.Paths.SourceDir+"/") {
		return errors.New("paths.dest_dir must not be inside paths.source_dir")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	return ensurePositiveMap(map[string]int{
		"pipeline.workers":   c.Pipeline.Workers,
		"pipeline.page_size": c.Pipeline.PageSize,
	})
}

func (c *Config) validateExiftool() error {
	if strings.TrimSpace(c.Exiftool.Binary) == "" {
		return errors.New("exiftool.binary must be set")
	}
	if c.Exiftool.TimeoutSeconds <= 0 {
		return errors.New("exiftool.timeout_seconds must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
