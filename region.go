package atlas

import (
	"fmt"
	"image"
)

// Region records one sprite's placement in an atlas: its unique name
// and the rectangle it occupies on the backing surface, in pixels.
// The rectangle excludes the fixed padding border.
type Region struct {
	// Name is the unique key identifying the sprite.
	Name string

	// X is the left edge of the region.
	X int
	// Y is the top edge of the region.
	Y int
	// Width is the region width.
	Width int
	// Height is the region height.
	Height int
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// IsValid returns true if the region has valid dimensions.
func (r Region) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// Contains returns true if the point (x, y) is inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// String returns a string representation of the region.
func (r Region) String() string {
	return fmt.Sprintf("Region(%q %d,%d %dx%d)", r.Name, r.X, r.Y, r.Width, r.Height)
}

// setRect repositions the region. Size and position only; the name is
// changed through the registry so the index stays consistent.
func (r *Region) setRect(x, y, w, h int) {
	r.X, r.Y, r.Width, r.Height = x, y, w, h
}
