// Package font provides the bitmap fonts that the framebuffer console can
// render with.
package font

var (
	// The list of available fonts. It is laid out by the linker so lookups
	// work before package initializers have run.
	availableFonts = []*Font{&basic8x16}
)

// Font describes a bitmap font that can be used by a console device.
type Font struct {
	// The name of the font
	Name string

	// The width of each glyph in pixels.
	GlyphWidth uint32

	// The height of each glyph in pixels.
	GlyphHeight uint32

	// The number of bytes describing a row in a glyph.
	BytesPerRow uint32

	// The font bitmap. Each character consists of BytesPerRow * Height
	// bytes where each bit indicates whether a pixel should be set to the
	// foreground or the background color. Glyphs are indexed by codepoint.
	// Generated fonts leave it nil until first use.
	Data []byte

	// build generates Data on first use.
	build func() []byte
}

// load generates the glyph data of fonts that are built on first use.
func (f *Font) load() *Font {
	if f.Data == nil && f.build != nil {
		f.Data = f.build()
	}
	return f
}

// GlyphCount returns the number of codepoints covered by the font. Glyphs
// past this count are unsupported.
func (f *Font) GlyphCount() uint32 {
	glyphSize := f.BytesPerRow * f.GlyphHeight
	if glyphSize == 0 {
		return 0
	}
	return uint32(len(f.Data)) / glyphSize
}

// FindByName looks up a font instance by name. If the font is not found then
// the function returns nil.
func FindByName(name string) *Font {
	for _, f := range availableFonts {
		if f.Name == name {
			return f.load()
		}
	}

	return nil
}

// Default returns the font used when no font is requested on the kernel
// command line.
func Default() *Font {
	return basic8x16.load()
}
