package canvas

// Bounds is the on-screen bounding box of the canvas element, in viewport
// coordinates.
type Bounds struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Mapper converts viewport pointer coordinates into canvas pixel space. The
// horizontal and vertical scale factors are independent: a canvas displayed
// at a size other than its backing resolution would otherwise place strokes
// at the wrong pixel.
type Mapper struct {
	Element       Bounds
	BackingWidth  float64
	BackingHeight float64
}

// Map translates (viewportX, viewportY) into canvas space. It always
// returns a value; pointers outside the element map out of bounds and are
// the caller's concern.
func (m Mapper) Map(viewportX, viewportY float64) (float64, float64) {
	sx, sy := 1.0, 1.0
	if m.Element.Width > 0 {
		sx = m.BackingWidth / m.Element.Width
	}
	if m.Element.Height > 0 {
		sy = m.BackingHeight / m.Element.Height
	}
	return (viewportX - m.Element.Left) * sx, (viewportY - m.Element.Top) * sy
}
