// Command atlasdemo rasterizes glyph sprites and packs them into a
// dynamic sprite atlas, writing the resulting surface as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/atlas"
	"github.com/gogpu/atlas/backend/soft"
	"github.com/gogpu/atlas/surface"
)

func main() {
	var (
		text    = flag.String("text", "Sphinx of black quartz, judge my vow! 0123456789", "characters to pack")
		size    = flag.Float64("size", 48, "font size in points")
		maxDim  = flag.Int("max", 1024, "maximum surface dimension (power of two)")
		output  = flag.String("output", "atlas.png", "output file")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		atlas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	face, err := newFace(*size)
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}
	defer face.Close()

	cfg := atlas.DefaultFreeFormConfig()
	cfg.MaxWidth = *maxDim
	cfg.MaxHeight = *maxDim
	cfg.InitialWidth = 64
	cfg.InitialHeight = 64

	a, err := atlas.NewFreeForm(soft.New(), cfg)
	if err != nil {
		log.Fatalf("Failed to create atlas: %v", err)
	}
	defer a.Destroy()

	var sprites []surface.Image
	for _, r := range uniqueRunes(*text) {
		glyph := renderGlyph(face, r)
		if glyph == nil {
			continue
		}
		sprites = append(sprites, soft.NewSprite(fmt.Sprintf("glyph-%04x", r), glyph))
	}

	if err := a.AcquireBatch(sprites); err != nil {
		log.Fatalf("Failed to pack %d glyphs: %v", len(sprites), err)
	}

	surf := a.Surface().(*soft.Surface)
	st := a.Stats()
	log.Printf("Packed %d glyphs onto a %dx%d surface (%d slots, %d used)",
		len(sprites), surf.Width(), surf.Height(), st.Slots, st.Used)

	if err := savePNG(*output, surf.RGBA()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Atlas saved to %s", *output)
}

// newFace opens the embedded Go Regular font at the given size.
func newFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// renderGlyph rasterizes one rune into a tight RGBA sprite, white on
// transparent. Returns nil for whitespace and missing glyphs.
func renderGlyph(face font.Face, r rune) *image.RGBA {
	bounds, _, ok := face.GlyphBounds(r)
	if !ok {
		return nil
	}
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if w <= 0 || h <= 0 {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
	}
	d.DrawString(string(r))
	return dst
}

// uniqueRunes returns the distinct runes of s in first-seen order.
func uniqueRunes(s string) []rune {
	seen := make(map[rune]bool, len(s))
	var out []rune
	for _, r := range s {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
