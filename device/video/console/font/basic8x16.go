package font

import "golang.org/x/image/font/basicfont"

const (
	basicGlyphs = 256

	// Face7x13 glyphs are placed inside the 8x16 cell with this padding.
	basicPadLeft = 1
	basicPadTop  = 2
)

// basic8x16 covers printable ASCII; Face7x13 has no glyphs for the rest of
// the first 256 codepoints so they stay blank.
var basic8x16 = Font{
	Name:        "basic8x16",
	GlyphWidth:  8,
	GlyphHeight: 16,
	BytesPerRow: 1,
	build:       buildBasic8x16,
}

func buildBasic8x16() []byte {
	return transcodeFace(basicfont.Face7x13)
}

// transcodeFace renders the first basicGlyphs codepoints of a basicfont face
// into a codepoint-indexed 8x16 1bpp table. Codepoints that the face does not
// cover are left blank.
func transcodeFace(face *basicfont.Face) []byte {
	data := make([]byte, basicGlyphs*16)

	for cp := rune(0); cp < basicGlyphs; cp++ {
		glyphIndex, ok := faceGlyphIndex(face, cp)
		if !ok {
			continue
		}

		maskY := glyphIndex * face.Height
		glyph := data[int(cp)*16 : int(cp)*16+16]
		for y := 0; y < face.Height && y+basicPadTop < 16; y++ {
			for x := 0; x < face.Width && x+basicPadLeft < 8; x++ {
				if _, _, _, a := face.Mask.At(x, maskY+y).RGBA(); a < 0x8000 {
					continue
				}
				glyph[y+basicPadTop] |= 1 << (7 - uint(x+basicPadLeft))
			}
		}
	}

	return data
}

// faceGlyphIndex maps a codepoint to its vertical position in the face mask.
func faceGlyphIndex(face *basicfont.Face, cp rune) (int, bool) {
	for _, rng := range face.Ranges {
		if cp >= rng.Low && cp < rng.High {
			return int(cp-rng.Low) + rng.Offset, true
		}
	}
	return 0, false
}
