package compose

// LineHeightFactor is the line height of the core fonts relative to their
// size: ascender minus descender plus line gap of Helvetica, in em units.
const LineHeightFactor = 1.156

// LineHeight returns the height of one text line at the given font size.
func LineHeight(size float64) float64 {
	return size * LineHeightFactor
}

// Cursor is the vertical drawing position on a page together with the font
// size that line-based moves are measured in. Every drawing step takes a
// Cursor and returns the next one.
type Cursor struct {
	Y    float64
	Size float64
}

// At returns c moved to y.
func (c Cursor) At(y float64) Cursor {
	c.Y = y
	return c
}

// Advance returns c moved down by dy points.
func (c Cursor) Advance(dy float64) Cursor {
	c.Y += dy
	return c
}

// Down returns c moved down by the given number of lines at c.Size.
func (c Cursor) Down(lines float64) Cursor {
	c.Y += lines * LineHeight(c.Size)
	return c
}

// WithSize returns c measuring lines at size.
func (c Cursor) WithSize(size float64) Cursor {
	c.Size = size
	return c
}
