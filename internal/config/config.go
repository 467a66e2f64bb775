package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"Skyview/internal/logger"
	"Skyview/internal/texture"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

var (
	ErrEmptyCatalog   = errors.New("cubemap catalog is empty")
	ErrInvalidSetting = errors.New("invalid setting")
)

type WindowConfig struct {
	Enabled bool   `toml:"enabled"`
	Title   string `toml:"title"`
	Width   int32  `toml:"width"`
	Height  int32  `toml:"height"`
}

type CascadeConfig struct {
	NumCascades     int     `toml:"num_cascades"`
	MaximumDistance float32 `toml:"maximum_distance"`
}

type SceneConfig struct {
	Path              string        `toml:"path"`
	AmbientColor      [3]float32    `toml:"ambient_color"`
	AmbientBrightness float32       `toml:"ambient_brightness"`
	ShadowMapSize     int32         `toml:"shadow_map_size"`
	ShadowsEnabled    bool          `toml:"shadows_enabled"`
	Cascades          CascadeConfig `toml:"cascades"`
}

type ShipConfig struct {
	Position [3]float32 `toml:"position"`
	LookAt   [3]float32 `toml:"look_at"`
}

type CameraConfig struct {
	MainYaw          float32 `toml:"main_yaw"`
	Fov              float32 `toml:"fov"`
	Speed            float32 `toml:"speed"`
	Sensitivity      float32 `toml:"sensitivity"`
	EnvDiffuseMap    string  `toml:"env_diffuse_map"`
	EnvSpecularMap   string  `toml:"env_specular_map"`
	InvertMouse      bool    `toml:"invert_mouse"`
	RequireRightDrag bool    `toml:"require_right_drag"`
}

type CatalogEntry struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
}

type CubemapConfig struct {
	SwapDelay float64        `toml:"swap_delay"`
	CubeSize  float32        `toml:"cube_size"`
	Catalog   []CatalogEntry `toml:"catalog"`
}

type AssetsConfig struct {
	Root    string `toml:"root"`
	Workers int    `toml:"workers"`
	Watch   bool   `toml:"watch"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type DemoConfig struct {
	Rotate bool `toml:"rotate"`
}

type Config struct {
	Window       WindowConfig  `toml:"window"`
	SecondWindow WindowConfig  `toml:"second_window"`
	Scene        SceneConfig   `toml:"scene"`
	Ship         ShipConfig    `toml:"ship"`
	Camera       CameraConfig  `toml:"camera"`
	Cubemap      CubemapConfig `toml:"cubemap"`
	Assets       AssetsConfig  `toml:"assets"`
	Log          LogConfig     `toml:"log"`
	Demo         DemoConfig    `toml:"demo"`
}

// Default returns the configuration the viewer runs with when no file is given.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Enabled: true,
			Title:   "Skyview",
			Width:   1280,
			Height:  720,
		},
		SecondWindow: WindowConfig{
			Enabled: true,
			Title:   "Second window",
			Width:   1280,
			Height:  720,
		},
		Scene: SceneConfig{
			Path:              "models/Dragonite/scene.gltf#Scene0",
			AmbientColor:      [3]float32{1, 1, 1},
			AmbientBrightness: 1.0 / 5.0,
			ShadowMapSize:     4096,
			ShadowsEnabled:    true,
			Cascades: CascadeConfig{
				NumCascades:     1,
				MaximumDistance: 1.6,
			},
		},
		Ship: ShipConfig{
			Position: [3]float32{10, 10, 0},
			LookAt:   [3]float32{0, 0, 0},
		},
		Camera: CameraConfig{
			MainYaw:          1.28,
			Fov:              45,
			Speed:            10,
			Sensitivity:      0.1,
			RequireRightDrag: true,
		},
		Cubemap: CubemapConfig{
			SwapDelay: 3.0,
			CubeSize:  10000,
			Catalog: []CatalogEntry{
				{Path: "textures/space_cubemap.png", Format: "none"},
			},
		},
		Assets: AssetsConfig{
			Root:    "assets",
			Workers: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML file on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Log.Info("No config file found, using defaults", zap.String("path", path))
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	// a catalog in the file replaces the current one instead of extending it
	catalog := cfg.Cubemap.Catalog
	cfg.Cubemap.Catalog = nil
	err := toml.Unmarshal(data, cfg)
	if cfg.Cubemap.Catalog == nil {
		cfg.Cubemap.Catalog = catalog
	}
	if err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("parse error at line %d column %d: %w", row, col, err)
		}
		return err
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Cubemap.Catalog) == 0 {
		return ErrEmptyCatalog
	}
	for i, e := range c.Cubemap.Catalog {
		if e.Path == "" {
			return fmt.Errorf("%w: cubemap.catalog[%d] has no path", ErrInvalidSetting, i)
		}
		if _, err := texture.ParseCompressedFormats(e.Format); err != nil {
			return fmt.Errorf("%w: cubemap.catalog[%d]: %v", ErrInvalidSetting, i, err)
		}
	}
	if c.Cubemap.SwapDelay <= 0 {
		return fmt.Errorf("%w: cubemap.swap_delay must be positive", ErrInvalidSetting)
	}
	if c.Cubemap.CubeSize <= 0 {
		return fmt.Errorf("%w: cubemap.cube_size must be positive", ErrInvalidSetting)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidSetting, c.Window.Width, c.Window.Height)
	}
	if c.SecondWindow.Enabled && (c.SecondWindow.Width <= 0 || c.SecondWindow.Height <= 0) {
		return fmt.Errorf("%w: second window size %dx%d", ErrInvalidSetting, c.SecondWindow.Width, c.SecondWindow.Height)
	}
	if c.Assets.Workers <= 0 {
		return fmt.Errorf("%w: assets.workers must be positive", ErrInvalidSetting)
	}
	return nil
}
