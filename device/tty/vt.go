// Package tty implements the text-state machine behind the framebuffer
// console. A VT owns a grid of cells, the cursor and the per-row change flags
// that the renderer consumes.
package tty

import (
	"github.com/danielgatis/go-ansicode"
)

const (
	// DefaultTabWidth defines the distance between the default tab stops.
	DefaultTabWidth = 8

	// DefaultFg is the foreground color (0x00RRGGBB) of a blank cell.
	DefaultFg = uint32(0xaaaaaa)

	// DefaultBg is the background color (0x00RRGGBB) of a blank cell. It
	// matches a zeroed framebuffer.
	DefaultBg = uint32(0x000000)
)

// Cell is a single character position of the terminal grid.
type Cell struct {
	Char       rune
	Fg, Bg     uint32
	Underlined bool
}

// blankCell is the contents of a cell that was never written to.
var blankCell = Cell{Char: ' ', Fg: DefaultFg, Bg: DefaultBg}

// attributes hold the SGR state applied to printed characters.
type attributes struct {
	fg, bg    uint32
	fgIndex   int // palette index of fg or -1 for direct colors
	bold      bool
	underline bool
	reverse   bool
	hidden    bool
}

var defaultAttributes = attributes{fg: DefaultFg, bg: DefaultBg, fgIndex: 7}

type savedCursor struct {
	col, row int
	attrs    attributes
}

// VT is a fixed-size ANSI terminal. Escape sequences are decoded with
// go-ansicode; the decoded actions mutate the cell grid through ansiHandler.
//
// Every cell mutation marks the cell's row as changed and raises the redraw
// flag. Cursor moves and visibility changes mark both the old and the new
// cursor row so that the renderer can repaint the inverse-video cursor.
type VT struct {
	cols, rows int
	cells      []Cell
	rowChanged []bool
	redraw     bool

	cursorCol, cursorRow int
	cursorVisible        bool

	// wrapPending is set after a character is printed in the last column.
	// The wrap happens when the next character is printed.
	wrapPending bool
	autoWrap    bool

	// lineFeedNewLine makes LF also return the carriage. Kernel log
	// output relies on it.
	lineFeedNewLine bool

	// scrollTop and scrollBottom delimit the scrolling region
	// [scrollTop, scrollBottom).
	scrollTop, scrollBottom int

	tabWidth int
	tabStops []bool

	attrs   attributes
	saved   savedCursor
	palette [256]uint32

	decoder *ansicode.Decoder
}

// NewVT returns a blank terminal with the given dimensions in character
// cells. No rows are marked as changed; the cursor is visible at (0, 0).
// Dimensions below one cell are raised to one so the grid always has a
// cursor cell; callers rendering into an area smaller than a cell should not
// create a terminal at all.
func NewVT(cols, rows int) *VT {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	t := &VT{
		cols:       cols,
		rows:       rows,
		cells:      make([]Cell, cols*rows),
		rowChanged: make([]bool, rows),
		tabStops:   make([]bool, cols),
		tabWidth:   DefaultTabWidth,
	}
	t.reset()
	t.decoder = ansicode.NewDecoder((*ansiHandler)(t))

	return t
}

// reset restores the power-on state without touching the change flags.
func (t *VT) reset() {
	for i := range t.cells {
		t.cells[i] = blankCell
	}

	t.cursorCol, t.cursorRow = 0, 0
	t.cursorVisible = true
	t.wrapPending = false
	t.autoWrap = true
	t.lineFeedNewLine = true
	t.scrollTop, t.scrollBottom = 0, t.rows
	t.attrs = defaultAttributes
	t.saved = savedCursor{attrs: defaultAttributes}
	t.palette = defaultPalette

	for col := range t.tabStops {
		t.tabStops[col] = col%t.tabWidth == 0
	}
}

// Write feeds p to the escape sequence decoder.
func (t *VT) Write(p []byte) (int, error) {
	return t.decoder.Write(p)
}

// Size returns the terminal dimensions in character cells.
func (t *VT) Size() (cols, rows int) {
	return t.cols, t.rows
}

// TakeRedraw reports whether anything changed since the last call and clears
// the flag.
func (t *VT) TakeRedraw() bool {
	redraw := t.redraw
	t.redraw = false
	return redraw
}

// TakeRowChanged reports whether row changed since the last call for the
// same row and clears its flag. Out of range rows report false.
func (t *VT) TakeRowChanged(row int) bool {
	if row < 0 || row >= t.rows {
		return false
	}

	changed := t.rowChanged[row]
	t.rowChanged[row] = false
	return changed
}

// Cursor returns the cursor cell and whether the cursor is visible.
func (t *VT) Cursor() (col, row int, visible bool) {
	return t.cursorCol, t.cursorRow, t.cursorVisible
}

// Cell returns the contents of the cell at (col, row). Out of range
// coordinates yield a blank cell.
func (t *VT) Cell(col, row int) Cell {
	if col < 0 || col >= t.cols || row < 0 || row >= t.rows {
		return blankCell
	}
	return t.cells[row*t.cols+col]
}

func (t *VT) markRow(row int) {
	t.rowChanged[row] = true
	t.redraw = true
}

func (t *VT) markRows(from, to int) {
	for row := from; row < to; row++ {
		t.markRow(row)
	}
}

func (t *VT) setCell(col, row int, c Cell) {
	t.cells[row*t.cols+col] = c
	t.markRow(row)
}

// moveCursor clamps (col, row) to the grid and moves the cursor there.
func (t *VT) moveCursor(col, row int) {
	col = clamp(col, 0, t.cols-1)
	row = clamp(row, 0, t.rows-1)
	t.wrapPending = false

	if col == t.cursorCol && row == t.cursorRow {
		return
	}

	t.markRow(t.cursorRow)
	t.cursorCol, t.cursorRow = col, row
	t.markRow(t.cursorRow)
}

func (t *VT) setCursorVisible(visible bool) {
	if t.cursorVisible == visible {
		return
	}

	t.cursorVisible = visible
	t.markRow(t.cursorRow)
}

// styledCell returns r rendered with the active attributes.
func (t *VT) styledCell(r rune) Cell {
	fg, bg := t.attrs.fg, t.attrs.bg
	if t.attrs.bold && t.attrs.fgIndex >= 0 && t.attrs.fgIndex < 8 {
		fg = t.palette[t.attrs.fgIndex+8]
	}
	if t.attrs.reverse {
		fg, bg = bg, fg
	}
	if t.attrs.hidden {
		fg = bg
	}

	return Cell{Char: r, Fg: fg, Bg: bg, Underlined: t.attrs.underline}
}

// eraseCell returns the cell used to fill erased positions. Erased cells keep
// the active background color.
func (t *VT) eraseCell() Cell {
	return Cell{Char: ' ', Fg: DefaultFg, Bg: t.attrs.bg}
}

func (t *VT) print(r rune) {
	if t.wrapPending {
		t.moveCursor(0, t.cursorRow)
		t.index()
	}

	t.setCell(t.cursorCol, t.cursorRow, t.styledCell(r))

	if t.cursorCol == t.cols-1 {
		t.wrapPending = t.autoWrap
		return
	}
	t.moveCursor(t.cursorCol+1, t.cursorRow)
}

// index moves the cursor down one row scrolling the scrolling region when
// the cursor is on its last row.
func (t *VT) index() {
	switch {
	case t.cursorRow == t.scrollBottom-1:
		t.scrollUp(1)
		t.wrapPending = false
	case t.cursorRow < t.rows-1:
		t.moveCursor(t.cursorCol, t.cursorRow+1)
	}
}

// reverseIndex moves the cursor up one row scrolling the scrolling region
// down when the cursor is on its first row.
func (t *VT) reverseIndex() {
	switch {
	case t.cursorRow == t.scrollTop:
		t.scrollDown(1)
		t.wrapPending = false
	case t.cursorRow > 0:
		t.moveCursor(t.cursorCol, t.cursorRow-1)
	}
}

// scrollUp shifts the rows of the scrolling region n rows up and blanks the
// rows uncovered at the bottom.
func (t *VT) scrollUp(n int) {
	t.scrollRegionUp(t.scrollTop, t.scrollBottom, n)
}

// scrollDown shifts the rows of the scrolling region n rows down and blanks
// the rows uncovered at the top.
func (t *VT) scrollDown(n int) {
	t.scrollRegionDown(t.scrollTop, t.scrollBottom, n)
}

func (t *VT) scrollRegionUp(top, bottom, n int) {
	if n <= 0 || top >= bottom {
		return
	}
	n = min(n, bottom-top)

	copy(t.cells[top*t.cols:bottom*t.cols], t.cells[(top+n)*t.cols:bottom*t.cols])
	t.fillRows(bottom-n, bottom, t.eraseCell())
	t.markRows(top, bottom)
}

func (t *VT) scrollRegionDown(top, bottom, n int) {
	if n <= 0 || top >= bottom {
		return
	}
	n = min(n, bottom-top)

	copy(t.cells[(top+n)*t.cols:bottom*t.cols], t.cells[top*t.cols:(bottom-n)*t.cols])
	t.fillRows(top, top+n, t.eraseCell())
	t.markRows(top, bottom)
}

func (t *VT) fillRows(from, to int, c Cell) {
	for i := from * t.cols; i < to*t.cols; i++ {
		t.cells[i] = c
	}
}

// eraseInRow replaces the cells [from, to) of row with blanks.
func (t *VT) eraseInRow(row, from, to int) {
	from, to = clamp(from, 0, t.cols), clamp(to, 0, t.cols)
	if from >= to {
		return
	}

	blank := t.eraseCell()
	for col := from; col < to; col++ {
		t.cells[row*t.cols+col] = blank
	}
	t.markRow(row)
}

func (t *VT) eraseRows(from, to int) {
	for row := from; row < to; row++ {
		t.eraseInRow(row, 0, t.cols)
	}
}

// nextTabStop returns the column of the tab stop after col or the last
// column if there is none.
func (t *VT) nextTabStop(col int) int {
	for col++; col < t.cols; col++ {
		if t.tabStops[col] {
			return col
		}
	}
	return t.cols - 1
}

// prevTabStop returns the column of the tab stop before col or 0.
func (t *VT) prevTabStop(col int) int {
	for col--; col > 0; col-- {
		if t.tabStops[col] {
			return col
		}
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
