package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all client configuration values
type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	World     WorldConfig     `yaml:"world"`
	Movement  MovementConfig  `yaml:"movement"`
	Occlusion OcclusionConfig `yaml:"occlusion"`
	Picking   PickingConfig   `yaml:"picking"`
	Network   NetworkConfig   `yaml:"network"`
	Logging   LoggingConfig   `yaml:"logging"`
	Assets    AssetsConfig    `yaml:"assets"`
}

type DisplayConfig struct {
	ScreenWidth  int    `yaml:"screen_width"`
	ScreenHeight int    `yaml:"screen_height"`
	WindowTitle  string `yaml:"window_title"`
	Resizable    bool   `yaml:"resizable"`
}

type WorldConfig struct {
	// TileWidth and TileHeight are checked against the tileset at startup.
	TileWidth  int `yaml:"tile_width"`
	TileHeight int `yaml:"tile_height"`
	// PathGridScale is how many pathfinding cells span one tile along each axis.
	PathGridScale int `yaml:"path_grid_scale"`
}

type MovementConfig struct {
	Speed              float64 `yaml:"speed"`               // pixels per second
	ReconcileThreshold float64 `yaml:"reconcile_threshold"` // pixels
	SnapPrecision      float64 `yaml:"snap_precision"`      // arrival rounding step
}

type OcclusionConfig struct {
	RefreshHz    float64 `yaml:"refresh_hz"`
	WindowRadius float64 `yaml:"window_radius"`
	AboveAlpha   float64 `yaml:"above_alpha"`
}

type PickingConfig struct {
	SearchRadius     int     `yaml:"search_radius"`
	AlphaThreshold   int     `yaml:"alpha_threshold"`
	DevicePixelRatio float64 `yaml:"device_pixel_ratio"`
}

type NetworkConfig struct {
	ServerURL    string `yaml:"server_url"`
	SnapshotBuf  int    `yaml:"snapshot_buffer"`
	WriteTimeout int    `yaml:"write_timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AssetsConfig struct {
	MapFile         string `yaml:"map_file"`
	TilesetFile     string `yaml:"tileset_file"`
	TilesetImage    string `yaml:"tileset_image"`
	WalkableTileset string `yaml:"walkable_tileset"` // optional layout of WalkableImage
	WalkableImage   string `yaml:"walkable_image"`
	TileTypes       string `yaml:"tile_types"`
}

var GlobalConfig *Config

// Default returns the configuration used when a key is missing from config.yaml.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			ScreenWidth:  1280,
			ScreenHeight: 720,
			WindowTitle:  "isoclient",
			Resizable:    true,
		},
		World: WorldConfig{
			TileWidth:     32,
			TileHeight:    32,
			PathGridScale: 3,
		},
		Movement: MovementConfig{
			Speed:              64,
			ReconcileThreshold: 20,
			SnapPrecision:      1,
		},
		Occlusion: OcclusionConfig{
			RefreshHz:    5,
			WindowRadius: 64,
			AboveAlpha:   0.33,
		},
		Picking: PickingConfig{
			SearchRadius:     1,
			AlphaThreshold:   255,
			DevicePixelRatio: 1,
		},
		Network: NetworkConfig{
			SnapshotBuf:  64,
			WriteTimeout: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads the configuration from a YAML file on top of Default.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set global config for easy access
	GlobalConfig = config

	return config, nil
}

// MustLoadConfig loads the configuration and panics on error
func MustLoadConfig(filename string) *Config {
	config, err := LoadConfig(filename)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return config
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	if c.World.TileWidth <= 0 || c.World.TileHeight <= 0 {
		return fmt.Errorf("invalid tile size %dx%d", c.World.TileWidth, c.World.TileHeight)
	}
	if c.World.PathGridScale <= 0 {
		return fmt.Errorf("path_grid_scale must be positive, got %d", c.World.PathGridScale)
	}
	if c.Movement.Speed <= 0 {
		return fmt.Errorf("movement speed must be positive, got %v", c.Movement.Speed)
	}
	if c.Picking.AlphaThreshold < 0 || c.Picking.AlphaThreshold > 255 {
		return fmt.Errorf("alpha_threshold out of range: %d", c.Picking.AlphaThreshold)
	}
	return nil
}

// Helper functions for easy access to commonly used values
func (c *Config) GetScreenWidth() int {
	return c.Display.ScreenWidth
}

func (c *Config) GetScreenHeight() int {
	return c.Display.ScreenHeight
}

func (c *Config) GetTileWidth() float64 {
	return float64(c.World.TileWidth)
}

func (c *Config) GetTileHeight() float64 {
	return float64(c.World.TileHeight)
}

func (c *Config) GetMoveSpeed() float64 {
	return c.Movement.Speed
}

// GetOcclusionInterval converts the refresh rate into a timer interval.
func (c *Config) GetOcclusionInterval() time.Duration {
	if c.Occlusion.RefreshHz <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(float64(time.Second) / c.Occlusion.RefreshHz)
}

func (c *Config) GetAlphaThreshold() uint8 {
	return uint8(c.Picking.AlphaThreshold)
}

func (c *Config) GetDevicePixelRatio() float64 {
	if c.Picking.DevicePixelRatio <= 0 {
		return 1
	}
	return c.Picking.DevicePixelRatio
}

func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Network.WriteTimeout) * time.Millisecond
}
