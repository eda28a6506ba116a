package geometry

import (
	"image"
	"math"
	"testing"
)

func TestPixelToAngle(t *testing.T) {
	tests := []struct {
		name       string
		centerX    int
		frameWidth int
		hfov       float64
		want       float64
	}{
		{"center is zero", 320, 640, 60, 0},
		{"center is zero regardless of fov", 320, 640, 90, 0},
		{"left edge", 0, 640, 60, -30},
		{"right edge", 640, 640, 60, 30},
		{"quarter left", 160, 640, 60, -15},
		{"wide fov scales", 0, 640, 120, -60},
		{"non-default width", 640, 1280, 60, 0},
		{"degenerate width", 0, 0, 60, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelToAngle(tt.centerX, tt.frameWidth, tt.hfov)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PixelToAngle(%d, %d, %v) = %v, want %v",
					tt.centerX, tt.frameWidth, tt.hfov, got, tt.want)
			}
		})
	}
}

func TestCenter(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
		want image.Point
	}{
		{"square at origin", image.Rect(0, 0, 100, 100), image.Pt(50, 50)},
		{"offset box", image.Rect(300, 80, 350, 120), image.Pt(325, 100)},
		{"single pixel", image.Rect(10, 10, 11, 11), image.Pt(10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Center(tt.rect); got != tt.want {
				t.Errorf("Center(%v) = %v, want %v", tt.rect, got, tt.want)
			}
		})
	}
}
