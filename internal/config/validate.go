package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var err error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		err = multierr.Append(err, invalid("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	err = multierr.Append(err, c.Scene.Validate())
	return err
}

// Validate checks the scene parameters that would otherwise surface as
// NaNs or silently inverted limits at runtime.
func (s *SceneConfig) Validate() error {
	var err error
	add := func(format string, args ...any) {
		err = multierr.Append(err, invalid(format, args...))
	}

	if s.Renderer.Width <= 0 || s.Renderer.Height <= 0 {
		add("renderer size %dx%d must be positive", s.Renderer.Width, s.Renderer.Height)
	}
	if s.Renderer.PixelRatio < 0 {
		add("pixel ratio %v must not be negative", s.Renderer.PixelRatio)
	}
	if s.Camera.FOV <= 0 || s.Camera.FOV >= 180 {
		add("camera fov %v must be in (0, 180)", s.Camera.FOV)
	}
	if s.Camera.Near <= 0 || s.Camera.Near >= s.Camera.Far {
		add("camera planes near=%v far=%v must satisfy 0 < near < far", s.Camera.Near, s.Camera.Far)
	}
	if s.Decoder.MaxPayloadMB < 0 || s.Decoder.MaxPayloadMB > MaxPayloadLimitMB {
		add("max payload %d MB must be in [0, %d]", s.Decoder.MaxPayloadMB, MaxPayloadLimitMB)
	}
	if s.Model.Scale <= 0 {
		add("model scale %v must be positive", s.Model.Scale)
	}

	c := s.Controls
	limits := []struct {
		name     string
		min, max float32
	}{
		{"distance", c.MinDistance, c.MaxDistance},
		{"polar angle", c.MinPolarAngle, c.MaxPolarAngle},
		{"azimuth angle", c.MinAzimuthAngle, c.MaxAzimuthAngle},
		{"x pan", c.MinXPan, c.MaxXPan},
		{"y pan", c.MinYPan, c.MaxYPan},
	}
	for _, l := range limits {
		if l.min > l.max {
			add("%s limits min=%v > max=%v", l.name, l.min, l.max)
		}
	}
	if c.EnableDamping && (c.DampingFactor <= 0 || c.DampingFactor > 1) {
		add("damping factor %v must be in (0, 1]", c.DampingFactor)
	}

	for i, l := range s.Lights {
		switch l.Type {
		case LightAmbient, LightDirectional, LightPoint:
		default:
			add("light %d has unknown type %q", i, l.Type)
		}
	}

	if s.PostFX.Pixelate && s.PostFX.PixelSize < 1 {
		add("pixel size %v must be at least 1", s.PostFX.PixelSize)
	}
	if s.Decor.Count < 0 {
		add("decor count %d must not be negative", s.Decor.Count)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
