// Package config loads the sensor deployment configuration. All fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// accessors supply defaults for everything else, which keeps the zero value
// of SensorConfig usable in tests.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/mmwave.report/internal/controlport"
	"github.com/banshee-data/mmwave.report/internal/dataport"
	"github.com/banshee-data/mmwave.report/internal/mmwave"
)

// SensorConfig is the root configuration for one radar sensor.
type SensorConfig struct {
	// Serial ports
	ControlPort *string `json:"control_port,omitempty"`
	ControlBaud *int    `json:"control_baud,omitempty"`
	DataPort    *string `json:"data_port,omitempty"`
	DataBaud    *int    `json:"data_baud,omitempty"`

	// Decoder params
	MaxFrameBytes *int `json:"max_frame_bytes,omitempty"`

	// Tracking volume, metres, sensor-relative. Targets outside the box
	// are discarded as ghosts.
	TrackingXMin *float64 `json:"tracking_x_min,omitempty"`
	TrackingXMax *float64 `json:"tracking_x_max,omitempty"`
	TrackingYMin *float64 `json:"tracking_y_min,omitempty"`
	TrackingYMax *float64 `json:"tracking_y_max,omitempty"`
	TrackingZMin *float64 `json:"tracking_z_min,omitempty"`
	TrackingZMax *float64 `json:"tracking_z_max,omitempty"`

	// Startup params
	SensorConfigPath *string `json:"sensor_config_path,omitempty"` // CLI profile sent on boot
	StreamDeadline   *string `json:"stream_deadline,omitempty"`    // duration string like "5s"

	// Health journal params
	JournalPath     *string `json:"journal_path,omitempty"`
	JournalInterval *string `json:"journal_interval,omitempty"` // duration string like "30s"
}

// Empty returns a SensorConfig with every field unset.
func Empty() *SensorConfig {
	return &SensorConfig{}
}

// Load reads a SensorConfig from a JSON file. Fields omitted from the file
// fall back to defaults via the Get* accessors, so partial configs are safe.
func Load(path string) (*SensorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *SensorConfig) Validate() error {
	if c.ControlBaud != nil && *c.ControlBaud <= 0 {
		return fmt.Errorf("control_baud must be positive, got %d", *c.ControlBaud)
	}
	if c.DataBaud != nil && *c.DataBaud <= 0 {
		return fmt.Errorf("data_baud must be positive, got %d", *c.DataBaud)
	}

	if c.MaxFrameBytes != nil && *c.MaxFrameBytes < mmwave.HeaderLengthFull {
		return fmt.Errorf("max_frame_bytes must be at least %d, got %d", mmwave.HeaderLengthFull, *c.MaxFrameBytes)
	}

	if c.TrackingXMin != nil && c.TrackingXMax != nil && *c.TrackingXMin >= *c.TrackingXMax {
		return fmt.Errorf("tracking_x_min %f must be below tracking_x_max %f", *c.TrackingXMin, *c.TrackingXMax)
	}
	if c.TrackingYMin != nil && c.TrackingYMax != nil && *c.TrackingYMin >= *c.TrackingYMax {
		return fmt.Errorf("tracking_y_min %f must be below tracking_y_max %f", *c.TrackingYMin, *c.TrackingYMax)
	}
	if c.TrackingZMin != nil && c.TrackingZMax != nil && *c.TrackingZMin >= *c.TrackingZMax {
		return fmt.Errorf("tracking_z_min %f must be below tracking_z_max %f", *c.TrackingZMin, *c.TrackingZMax)
	}

	if c.StreamDeadline != nil && *c.StreamDeadline != "" {
		if _, err := time.ParseDuration(*c.StreamDeadline); err != nil {
			return fmt.Errorf("invalid stream_deadline '%s': %w", *c.StreamDeadline, err)
		}
	}
	if c.JournalInterval != nil && *c.JournalInterval != "" {
		if _, err := time.ParseDuration(*c.JournalInterval); err != nil {
			return fmt.Errorf("invalid journal_interval '%s': %w", *c.JournalInterval, err)
		}
	}

	return nil
}

// GetControlPort returns the control channel device path or the default.
func (c *SensorConfig) GetControlPort() string {
	if c.ControlPort == nil || *c.ControlPort == "" {
		return "/dev/ttyUSB0"
	}
	return *c.ControlPort
}

// GetControlBaud returns the control channel baud rate or the default.
func (c *SensorConfig) GetControlBaud() int {
	if c.ControlBaud == nil {
		return controlport.DefaultBaudRate
	}
	return *c.ControlBaud
}

// GetDataPort returns the data channel device path or the default.
func (c *SensorConfig) GetDataPort() string {
	if c.DataPort == nil || *c.DataPort == "" {
		return "/dev/ttyUSB1"
	}
	return *c.DataPort
}

// GetDataBaud returns the data channel baud rate or the default.
func (c *SensorConfig) GetDataBaud() int {
	if c.DataBaud == nil {
		return dataport.DefaultBaudRate
	}
	return *c.DataBaud
}

// GetMaxFrameBytes returns the frame length sanity ceiling or the default.
func (c *SensorConfig) GetMaxFrameBytes() int {
	if c.MaxFrameBytes == nil {
		return mmwave.DefaultMaxFrameBytes
	}
	return *c.MaxFrameBytes
}

// GetTargetBounds assembles the tracking volume, filling unset edges from
// the firmware's default room dimensions.
func (c *SensorConfig) GetTargetBounds() mmwave.Bounds {
	b := mmwave.DefaultTargetBounds()
	if c.TrackingXMin != nil {
		b.XMin = float32(*c.TrackingXMin)
	}
	if c.TrackingXMax != nil {
		b.XMax = float32(*c.TrackingXMax)
	}
	if c.TrackingYMin != nil {
		b.YMin = float32(*c.TrackingYMin)
	}
	if c.TrackingYMax != nil {
		b.YMax = float32(*c.TrackingYMax)
	}
	if c.TrackingZMin != nil {
		b.ZMin = float32(*c.TrackingZMin)
	}
	if c.TrackingZMax != nil {
		b.ZMax = float32(*c.TrackingZMax)
	}
	return b
}

// GetSensorConfigPath returns the CLI profile path, or "" when the sensor
// is expected to boot from flash.
func (c *SensorConfig) GetSensorConfigPath() string {
	if c.SensorConfigPath == nil {
		return ""
	}
	return *c.SensorConfigPath
}

// GetStreamDeadline returns how long startup waits for the first decoded
// frame before declaring the sensor absent.
func (c *SensorConfig) GetStreamDeadline() time.Duration {
	if c.StreamDeadline == nil || *c.StreamDeadline == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(*c.StreamDeadline)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetJournalPath returns the health journal database path or the default.
func (c *SensorConfig) GetJournalPath() string {
	if c.JournalPath == nil || *c.JournalPath == "" {
		return "mmwave-health.db"
	}
	return *c.JournalPath
}

// GetJournalInterval returns the health snapshot cadence or the default.
func (c *SensorConfig) GetJournalInterval() time.Duration {
	if c.JournalInterval == nil || *c.JournalInterval == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.JournalInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
