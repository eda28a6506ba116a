// Package geometry maps pixel coordinates to pointing angles for the
// indicator servo.
package geometry

import "image"

// DefaultHFOV is the assumed horizontal field of view in degrees when the
// camera optics have not been measured.
const DefaultHFOV = 60.0

// Center returns the center point of a bounding rectangle.
func Center(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
}

// PixelToAngle converts a horizontal pixel coordinate to a pointing angle in
// degrees: the offset from the optical center scaled by half the field of
// view over half the frame width. The mapping is linear; no lens distortion
// correction is applied.
func PixelToAngle(centerX, frameWidth int, hfovDeg float64) float64 {
	half := float64(frameWidth) / 2.0
	if half == 0 {
		return 0
	}
	return ((float64(centerX) - half) / half) * (hfovDeg / 2.0)
}
