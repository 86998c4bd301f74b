package atlas

import "github.com/gogpu/gputypes"

// Padding is the fixed border, in pixels, kept around every sprite on
// all four sides. It prevents filtering artifacts from bleeding between
// neighboring sprites and is constant across the system.
const Padding = 1

// GridConfig configures a fixed-grid allocator.
type GridConfig struct {
	// MaxWidth is the maximum surface width. Must be a power of two.
	// Default: 2048
	MaxWidth int

	// MaxHeight is the maximum surface height. Must be a power of two.
	// Default: 2048
	MaxHeight int

	// CellWidth is the fixed width of every cell, excluding padding.
	// Default: 32
	CellWidth int

	// CellHeight is the fixed height of every cell, excluding padding.
	// Default: 32
	CellHeight int

	// InitialCapacity is a hint for the number of cells to provision
	// on first placement. The slot count never shrinks below it.
	// Default: 64
	InitialCapacity int

	// Format is the surface pixel format.
	// Default: gputypes.TextureFormatRGBA8Unorm
	Format gputypes.TextureFormat
}

// DefaultGridConfig returns the default grid configuration.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		MaxWidth:        2048,
		MaxHeight:       2048,
		CellWidth:       32,
		CellHeight:      32,
		InitialCapacity: 64,
		Format:          gputypes.TextureFormatRGBA8Unorm,
	}
}

// Validate checks if the configuration is valid.
func (c *GridConfig) Validate() error {
	if err := validateMax(c.MaxWidth, c.MaxHeight); err != nil {
		return err
	}
	if c.CellWidth < 1 {
		return &ConfigError{Field: "CellWidth", Reason: "must be at least 1"}
	}
	if c.CellHeight < 1 {
		return &ConfigError{Field: "CellHeight", Reason: "must be at least 1"}
	}
	if c.CellWidth+2*Padding > c.MaxWidth {
		return &ConfigError{Field: "CellWidth", Reason: "padded cell exceeds MaxWidth"}
	}
	if c.CellHeight+2*Padding > c.MaxHeight {
		return &ConfigError{Field: "CellHeight", Reason: "padded cell exceeds MaxHeight"}
	}
	if c.InitialCapacity < 0 {
		return &ConfigError{Field: "InitialCapacity", Reason: "must be non-negative"}
	}
	return nil
}

// FreeFormConfig configures a free-form allocator.
type FreeFormConfig struct {
	// MaxWidth is the maximum surface width. Must be a power of two.
	// Default: 2048
	MaxWidth int

	// MaxHeight is the maximum surface height. Must be a power of two.
	// Default: 2048
	MaxHeight int

	// InitialWidth is the surface width used for the first placement.
	// Must be a power of two no larger than MaxWidth. Default: 256
	InitialWidth int

	// InitialHeight is the surface height used for the first placement.
	// Must be a power of two no larger than MaxHeight. Default: 256
	InitialHeight int

	// Format is the surface pixel format.
	// Default: gputypes.TextureFormatRGBA8Unorm
	Format gputypes.TextureFormat
}

// DefaultFreeFormConfig returns the default free-form configuration.
func DefaultFreeFormConfig() FreeFormConfig {
	return FreeFormConfig{
		MaxWidth:      2048,
		MaxHeight:     2048,
		InitialWidth:  256,
		InitialHeight: 256,
		Format:        gputypes.TextureFormatRGBA8Unorm,
	}
}

// Validate checks if the configuration is valid.
func (c *FreeFormConfig) Validate() error {
	if err := validateMax(c.MaxWidth, c.MaxHeight); err != nil {
		return err
	}
	if c.InitialWidth < 1 || !isPow2(c.InitialWidth) {
		return &ConfigError{Field: "InitialWidth", Reason: "must be a positive power of two"}
	}
	if c.InitialHeight < 1 || !isPow2(c.InitialHeight) {
		return &ConfigError{Field: "InitialHeight", Reason: "must be a positive power of two"}
	}
	if c.InitialWidth > c.MaxWidth {
		return &ConfigError{Field: "InitialWidth", Reason: "must be at most MaxWidth"}
	}
	if c.InitialHeight > c.MaxHeight {
		return &ConfigError{Field: "InitialHeight", Reason: "must be at most MaxHeight"}
	}
	return nil
}

func validateMax(w, h int) error {
	if w < 1 || !isPow2(w) {
		return &ConfigError{Field: "MaxWidth", Reason: "must be a positive power of two"}
	}
	if h < 1 || !isPow2(h) {
		return &ConfigError{Field: "MaxHeight", Reason: "must be a positive power of two"}
	}
	return nil
}

// isPow2 reports whether v is a power of two. v must be positive.
func isPow2(v int) bool {
	return v&(v-1) == 0
}

// nextPow2 returns the smallest power of two >= v.
func nextPow2(v int) int {
	if v <= 1 {
		return 1
	}
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}

// defaultFormat substitutes the default pixel format for a zero value.
func defaultFormat(f gputypes.TextureFormat) gputypes.TextureFormat {
	var zero gputypes.TextureFormat
	if f == zero {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return f
}
