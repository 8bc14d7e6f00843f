// Package config handles viewer configuration loading and management.
package config

import (
	gomath "math"

	"github.com/Faultbox/retroscene/pkg/math"
)

// Config holds all viewer settings.
type Config struct {
	Window      WindowConfig     `yaml:"window"`
	Scene       SceneConfig      `yaml:"scene"`
	Logging     LoggingConfig    `yaml:"logging"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
}

// WindowConfig holds display settings of the host window.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	ShowFPS    bool   `yaml:"show_fps"`
}

// SceneConfig describes one scene instance. Only the renderer size and
// pixel ratio change after construction.
type SceneConfig struct {
	Model    ModelConfig    `yaml:"model"`
	Decoder  DecoderConfig  `yaml:"decoder"`
	Renderer RendererConfig `yaml:"renderer"`
	Camera   CameraConfig   `yaml:"camera"`
	Lights   []LightConfig  `yaml:"lights"`
	Controls ControlsConfig `yaml:"controls"`
	PostFX   PostFXConfig   `yaml:"postfx"`
	Decor    DecorConfig    `yaml:"decor"`
}

// ModelConfig locates the showcased model and places it in the world.
type ModelConfig struct {
	Path     string    `yaml:"path"`
	File     string    `yaml:"file"`
	Scale    float32   `yaml:"scale"`
	Position math.Vec3 `yaml:"position"`
}

// MaxPayloadLimitMB is the largest payload limit a decoder can express.
const MaxPayloadLimitMB = 4095

// DecoderConfig configures the shared asset decoder.
type DecoderConfig struct {
	Dir          string `yaml:"dir"`
	MaxPayloadMB int    `yaml:"max_payload_mb"`
}

// RendererConfig holds the drawing surface parameters.
type RendererConfig struct {
	Antialias  bool    `yaml:"antialias"`
	PixelRatio float32 `yaml:"pixel_ratio"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	ClearColor uint32  `yaml:"clear_color"`
}

// CameraConfig holds the perspective camera parameters.
type CameraConfig struct {
	FOV      float32   `yaml:"fov"` // vertical, degrees
	Near     float32   `yaml:"near"`
	Far      float32   `yaml:"far"`
	Position math.Vec3 `yaml:"position"`
	LookAt   math.Vec3 `yaml:"look_at"`
}

// Light types.
const (
	LightAmbient     = "ambient"
	LightDirectional = "directional"
	LightPoint       = "point"
)

// LightConfig describes one light. Lights are attached to the camera, so
// Position is relative to it.
type LightConfig struct {
	Type      string     `yaml:"type"`
	Color     uint32     `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
	Position  *math.Vec3 `yaml:"position,omitempty"`
}

// ControlsConfig holds the orbit controller limits and speeds. Angles are
// in radians.
type ControlsConfig struct {
	EnableDamping      bool    `yaml:"enable_damping"`
	DampingFactor      float32 `yaml:"damping_factor"`
	EnableZoom         bool    `yaml:"enable_zoom"`
	ZoomSpeed          float32 `yaml:"zoom_speed"`
	EnableRotate       bool    `yaml:"enable_rotate"`
	RotateSpeed        float32 `yaml:"rotate_speed"`
	EnablePan          bool    `yaml:"enable_pan"`
	PanSpeed           float32 `yaml:"pan_speed"`
	KeyPanSpeed        float32 `yaml:"key_pan_speed"`
	ScreenSpacePanning bool    `yaml:"screen_space_panning"`
	AutoRotate         bool    `yaml:"auto_rotate"`
	AutoRotateSpeed    float32 `yaml:"auto_rotate_speed"`
	MinDistance        float32 `yaml:"min_distance"`
	MaxDistance        float32 `yaml:"max_distance"`
	MinPolarAngle      float32 `yaml:"min_polar_angle"`
	MaxPolarAngle      float32 `yaml:"max_polar_angle"`
	MinAzimuthAngle    float32 `yaml:"min_azimuth_angle"`
	MaxAzimuthAngle    float32 `yaml:"max_azimuth_angle"`
	MinXPan            float32 `yaml:"min_x_pan"`
	MaxXPan            float32 `yaml:"max_x_pan"`
	MinYPan            float32 `yaml:"min_y_pan"`
	MaxYPan            float32 `yaml:"max_y_pan"`
	ZoomThreshold      float32 `yaml:"zoom_threshold"`
}

// PostFXConfig toggles the stylization passes.
type PostFXConfig struct {
	Pixelate   bool    `yaml:"pixelate"`
	PixelSize  float32 `yaml:"pixel_size"`
	Glitch     bool    `yaml:"glitch"`
	GlitchWild bool    `yaml:"glitch_wild"`
}

// DecorConfig controls the random decorative meshes around the model.
type DecorConfig struct {
	Count  int     `yaml:"count"`
	Radius float32 `yaml:"radius"`
	Seed   int64   `yaml:"seed"` // 0 picks a time-based seed
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ScreenshotConfig holds screenshot output settings.
type ScreenshotConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a Config with the showcase defaults.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "retroscene",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Scene: DefaultScene(1280, 720, 1),
		Logging: LoggingConfig{
			Level: "info",
		},
		Screenshots: ScreenshotConfig{
			Dir: "screenshots",
		},
	}
}

// DefaultScene returns the showcase scene for a surface of the given size.
func DefaultScene(width, height int, pixelRatio float32) SceneConfig {
	inf := float32(gomath.Inf(1))
	return SceneConfig{
		Model: ModelConfig{
			Path:  "assets",
			File:  "retro_computer.mshz",
			Scale: 50,
		},
		Decoder: DecoderConfig{
			Dir:          "assets",
			MaxPayloadMB: 64,
		},
		Renderer: RendererConfig{
			Antialias:  true,
			PixelRatio: pixelRatio,
			Width:      width,
			Height:     height,
		},
		Camera: CameraConfig{
			FOV:      50,
			Near:     1,
			Far:      1000,
			Position: math.Vec3{X: 0, Y: 5, Z: 5},
		},
		Lights: []LightConfig{
			{Type: LightAmbient, Color: 0xffffff, Intensity: 0.3},
			{Type: LightDirectional, Color: 0xffffff, Intensity: 0.6, Position: &math.Vec3{X: 1, Y: 1, Z: 1}},
		},
		Controls: ControlsConfig{
			EnableDamping:   true,
			DampingFactor:   0.75,
			EnableZoom:      true,
			ZoomSpeed:       0.5,
			EnableRotate:    true,
			RotateSpeed:     1,
			PanSpeed:        1,
			KeyPanSpeed:     7,
			AutoRotate:      true,
			AutoRotateSpeed: 2,
			MinDistance:     50,
			MaxDistance:     300,
			MinPolarAngle:   gomath.Pi / 2,
			MaxPolarAngle:   gomath.Pi / 2,
			MinAzimuthAngle: -inf,
			MaxAzimuthAngle: inf,
			MinXPan:         -inf,
			MaxXPan:         inf,
			MinYPan:         35,
			MaxYPan:         250,
			ZoomThreshold:   500,
		},
		PostFX: PostFXConfig{
			Pixelate:  true,
			PixelSize: 8,
			Glitch:    true,
		},
		Decor: DecorConfig{
			Count:  50,
			Radius: 500,
		},
	}
}
