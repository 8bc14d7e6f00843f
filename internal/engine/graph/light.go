package graph

import (
	gomath "math"

	"github.com/Faultbox/retroscene/pkg/math"
)

// LightType is the kind of light source.
type LightType uint8

const (
	LightAmbient LightType = iota
	LightDirectional
	LightPoint
)

// Light is a light source. Directional lights shine from the node position
// towards the origin; point lights emit from the node position.
type Light struct {
	Type      LightType
	Color     math.Vec3
	Intensity float32
}

// ColorFromHex converts 0xRRGGBB to a linear 0..1 color.
func ColorFromHex(hex uint32) math.Vec3 {
	return math.Vec3{
		X: float32((hex>>16)&0xff) / 255,
		Y: float32((hex>>8)&0xff) / 255,
		Z: float32(hex&0xff) / 255,
	}
}

// ColorFromHSL converts hue, saturation and lightness (all 0..1) to RGB.
func ColorFromHSL(h, s, l float32) math.Vec3 {
	h = float32(gomath.Mod(float64(h), 1))
	if h < 0 {
		h++
	}
	s = math.Clamp(s, 0, 1)
	l = math.Clamp(l, 0, 1)
	if s == 0 {
		return math.Vec3{X: l, Y: l, Z: l}
	}

	var q float32
	if l <= 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return math.Vec3{
		X: hueToRGB(p, q, h+1.0/3),
		Y: hueToRGB(p, q, h),
		Z: hueToRGB(p, q, h-1.0/3),
	}
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*6*(2.0/3-t)
	default:
		return p
	}
}
