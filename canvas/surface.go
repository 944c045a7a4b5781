// Package canvas adapts a raster drawing surface and maps pointer
// coordinates into its pixel space.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
)

var background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Surface renders stroke segments onto an in-memory raster. The zero value
// has no backing image and ignores all operations, so input arriving before
// setup cannot fail.
type Surface struct {
	mu      sync.Mutex
	img     *image.RGBA
	lastX   float64
	lastY   float64
	hasPath bool
}

// NewSurface allocates a white surface of the given pixel dimensions.
func NewSurface(width, height int) *Surface {
	s := &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
	s.Clear()
	return s
}

// BeginStroke starts a new path at (x, y). Subsequent ExtendStroke calls
// connect from this point.
func (s *Surface) BeginStroke(x, y float64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return
	}
	s.lastX, s.lastY = x, y
	s.hasPath = true
}

// ExtendStroke draws a segment from the last point to (x, y) and commits it
// immediately. Without an open path it only records the point, matching
// lineTo-before-moveTo semantics.
func (s *Surface) ExtendStroke(x, y float64, c color.Color, width float64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return
	}
	if s.hasPath {
		s.segment(s.lastX, s.lastY, x, y, c, width)
	}
	s.lastX, s.lastY = x, y
	s.hasPath = true
}

// Clear fills the surface with the white background, discarding all strokes.
func (s *Surface) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return
	}
	draw.Draw(s.img, s.img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)
	s.hasPath = false
}

// At reports the pixel at (x, y), or the background for out-of-range or
// uninitialized surfaces.
func (s *Surface) At(x, y int) color.Color {
	if s == nil {
		return background
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil || !(image.Point{X: x, Y: y}.In(s.img.Bounds())) {
		return background
	}
	return s.img.At(x, y)
}

// Bounds reports the surface dimensions.
func (s *Surface) Bounds() image.Rectangle {
	if s == nil {
		return image.Rectangle{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return image.Rectangle{}
	}
	return s.img.Bounds()
}

// Snapshot copies the current raster.
func (s *Surface) Snapshot() *image.RGBA {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil
	}
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// segment stamps round caps along the line so thick strokes stay contiguous.
func (s *Surface) segment(x0, y0, x1, y1 float64, c color.Color, width float64) {
	// a radius below 0.75 can slip between pixel centers when coordinates
	// land on pixel corners, leaving hairline strokes invisible
	radius := width / 2
	if radius < 0.75 {
		radius = 0.75
	}
	dist := math.Hypot(x1-x0, y1-y0)
	steps := int(math.Ceil(dist*2)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		s.stamp(x0+(x1-x0)*t, y0+(y1-y0)*t, radius, c)
	}
}

func (s *Surface) stamp(cx, cy, r float64, c color.Color) {
	bounds := s.img.Bounds()
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !(image.Point{X: x, Y: y}.In(bounds)) {
				continue
			}
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				s.img.Set(x, y, c)
			}
		}
	}
}

// ParseHex parses a "#rrggbb" color string.
func ParseHex(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
