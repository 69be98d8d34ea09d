package tty

import "image/color"

// defaultPalette holds the 16 VGA text mode colors followed by the xterm
// 6x6x6 color cube and the 24 step gray ramp.
var defaultPalette = buildPalette()

func buildPalette() [256]uint32 {
	var p = [256]uint32{
		0x000000, 0xaa0000, 0x00aa00, 0xaa5500, 0x0000aa, 0xaa00aa, 0x00aaaa, 0xaaaaaa,
		0x555555, 0xff5555, 0x55ff55, 0xffff55, 0x5555ff, 0xff55ff, 0x55ffff, 0xffffff,
	}

	levels := [6]uint32{0, 95, 135, 175, 215, 255}
	for i := 0; i < 216; i++ {
		p[16+i] = levels[i/36]<<16 | levels[(i/6)%6]<<8 | levels[i%6]
	}

	for i := 0; i < 24; i++ {
		gray := uint32(8 + 10*i)
		p[232+i] = gray<<16 | gray<<8 | gray
	}

	return p
}

// rgb packs c into 0x00RRGGBB.
func rgb(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (r>>8)<<16 | (g>>8)<<8 | b>>8
}
