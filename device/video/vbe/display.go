// Package vbe drives the linear framebuffer that the boot stage configures
// through VBE and renders the kernel console into it.
package vbe

import (
	"io"
	"vbecon/device/tty"
)

const (
	// Character cells are 8x16 pixels.
	cellWidth  = 8
	cellHeight = 16

	// underlineOffset is the row inside a cell where underlines are drawn.
	underlineOffset = 14
)

// Terminal is the text-state machine rendered by a Display. tty.VT
// implements it.
type Terminal interface {
	io.Writer

	// Size returns the grid dimensions in character cells.
	Size() (cols, rows int)

	// TakeRedraw reports and clears the pending redraw flag.
	TakeRedraw() bool

	// TakeRowChanged reports and clears the change flag of a row.
	TakeRowChanged(row int) bool

	// Cursor returns the cursor cell and whether it is visible.
	Cursor() (col, row int, visible bool)

	// Cell returns the contents of a character cell.
	Cell(col, row int) tty.Cell
}

// Display renders a Terminal into a 32bpp framebuffer.
type Display struct {
	width, height uint32

	// fb holds exactly width*height pixels in row-major order.
	fb []uint32

	term   Terminal
	glyphs []byte
}

// NewDisplay returns a Display that renders term into fb. The glyph table
// holds 16 bytes per codepoint, one byte per 8 pixel row.
func NewDisplay(width, height uint32, fb []uint32, term Terminal, glyphs []byte) *Display {
	return &Display{
		width:  width,
		height: height,
		fb:     fb[:uint64(width)*uint64(height)],
		term:   term,
		glyphs: glyphs,
	}
}

// Width returns the framebuffer width in pixels.
func (d *Display) Width() uint32 { return d.width }

// Height returns the framebuffer height in pixels.
func (d *Display) Height() uint32 { return d.height }

// Rect fills the w x h rectangle with its top-left corner at (x, y). The
// rectangle is clipped to the framebuffer; the start coordinates are clamped
// to the last column and row.
func (d *Display) Rect(x, y, w, h, color uint32) {
	if d.width == 0 || d.height == 0 {
		return
	}

	var (
		width  = uint64(d.width)
		startY = min(uint64(d.height)-1, uint64(y))
		endY   = min(uint64(d.height), uint64(y)+uint64(h))
		startX = min(width-1, uint64(x))
		endX   = min(width, uint64(x)+uint64(w))
	)

	if endX <= startX {
		return
	}

	for row := startY; row < endY; row++ {
		run := d.fb[row*width+startX : row*width+endX]
		for i := range run {
			run[i] = color
		}
	}
}

// Char draws the glyph for codepoint in color with its top-left corner at
// (x, y). Glyph pixels that are not set keep their current color. Cells that
// do not fit in the framebuffer and codepoints missing from the glyph table
// are ignored.
func (d *Display) Char(x, y uint32, codepoint rune, color uint32) {
	if uint64(x)+cellWidth > uint64(d.width) || uint64(y)+cellHeight > uint64(d.height) {
		return
	}

	if codepoint < 0 {
		return
	}

	fontIndex := uint64(codepoint) * cellHeight
	if fontIndex+cellHeight > uint64(len(d.glyphs)) {
		return
	}

	glyph := d.glyphs[fontIndex : fontIndex+cellHeight]
	for row, bits := range glyph {
		offset := (uint64(y)+uint64(row))*uint64(d.width) + uint64(x)
		for col := uint64(0); col < cellWidth; col++ {
			if bits&(1<<(7-col)) != 0 {
				d.fb[offset+col] = color
			}
		}
	}
}

// Write forwards p to the terminal and repaints the character rows that it
// reports as changed. Nothing is painted when the terminal does not request
// a redraw.
func (d *Display) Write(p []byte) (int, error) {
	n, err := d.term.Write(p)
	d.render()
	return n, err
}

// render repaints every changed row. The cursor cell is drawn in inverse
// video; underlines use the foreground color after the inversion.
func (d *Display) render() {
	if !d.term.TakeRedraw() {
		return
	}

	cols, rows := d.term.Size()
	cursorCol, cursorRow, cursorVisible := d.term.Cursor()

	for row := 0; row < rows; row++ {
		if !d.term.TakeRowChanged(row) {
			continue
		}

		y := uint32(row) * cellHeight
		for col := 0; col < cols; col++ {
			cell := d.term.Cell(col, row)
			x := uint32(col) * cellWidth

			bg, fg := cell.Bg, cell.Fg
			if cursorVisible && col == cursorCol && row == cursorRow {
				bg, fg = fg, bg
			}

			d.Rect(x, y, cellWidth, cellHeight, bg)
			if cell.Char != ' ' {
				d.Char(x, y, cell.Char, fg)
			}
			if cell.Underlined {
				d.Rect(x, y+underlineOffset, cellWidth, 1, fg)
			}
		}
	}
}
