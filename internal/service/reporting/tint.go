package reporting

import (
	"hash/fnv"
	"image/color"
	"math"
)

const (
	tintSaturation = 0.55
	tintLightness  = 0.85
)

// Tint returns the pastel row colour for kit. The same kit name always maps to
// the same colour, across runs and processes.
func Tint(kit string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(kit))
	hue := float64(h.Sum32()%360) / 360
	r, g, b := hslToRGB(hue, tintSaturation, tintLightness)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return channel(p, q, h+1.0/3), channel(p, q, h), channel(p, q, h-1.0/3)
}

func channel(p, q, t float64) uint8 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}

	var v float64
	switch {
	case t < 1.0/6:
		v = p + (q-p)*6*t
	case t < 0.5:
		v = q
	case t < 2.0/3:
		v = p + (q-p)*(2.0/3-t)*6
	default:
		v = p
	}
	return uint8(math.Round(v * 255))
}
