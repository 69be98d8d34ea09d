package tty

import (
	"image/color"

	"github.com/danielgatis/go-ansicode"
)

// ansiHandler receives the actions decoded by go-ansicode. It shares the
// memory layout of VT so the handler methods stay out of the VT API.
type ansiHandler VT

func (h *ansiHandler) vt() *VT { return (*VT)(h) }

// Input prints a character at the cursor.
func (h *ansiHandler) Input(r rune) { h.vt().print(r) }

// Backspace moves the cursor one column left.
func (h *ansiHandler) Backspace() {
	t := h.vt()
	t.moveCursor(t.cursorCol-1, t.cursorRow)
}

// CarriageReturn moves the cursor to the first column.
func (h *ansiHandler) CarriageReturn() {
	t := h.vt()
	t.moveCursor(0, t.cursorRow)
}

// LineFeed moves the cursor to the next row, scrolling if needed.
func (h *ansiHandler) LineFeed() {
	t := h.vt()
	if t.lineFeedNewLine {
		t.moveCursor(0, t.cursorRow)
	}
	t.index()
}

// ReverseIndex moves the cursor to the previous row, scrolling if needed.
func (h *ansiHandler) ReverseIndex() { h.vt().reverseIndex() }

// Tab advances the cursor to the n-th next tab stop.
func (h *ansiHandler) Tab(n int) { h.MoveForwardTabs(n) }

// MoveForwardTabs advances the cursor to the n-th next tab stop.
func (h *ansiHandler) MoveForwardTabs(n int) {
	t := h.vt()
	col := t.cursorCol
	for ; n > 0; n-- {
		col = t.nextTabStop(col)
	}
	t.moveCursor(col, t.cursorRow)
}

// MoveBackwardTabs moves the cursor back to the n-th previous tab stop.
func (h *ansiHandler) MoveBackwardTabs(n int) {
	t := h.vt()
	col := t.cursorCol
	for ; n > 0; n-- {
		col = t.prevTabStop(col)
	}
	t.moveCursor(col, t.cursorRow)
}

// HorizontalTabSet sets a tab stop at the cursor column.
func (h *ansiHandler) HorizontalTabSet() {
	t := h.vt()
	t.tabStops[t.cursorCol] = true
}

// ClearTabs clears the tab stop at the cursor or all tab stops.
func (h *ansiHandler) ClearTabs(mode ansicode.TabulationClearMode) {
	t := h.vt()
	switch mode {
	case ansicode.TabulationClearModeCurrent:
		t.tabStops[t.cursorCol] = false
	case ansicode.TabulationClearModeAll:
		for col := range t.tabStops {
			t.tabStops[col] = false
		}
	}
}

// Goto moves the cursor to the 0-based (row, col) cell.
func (h *ansiHandler) Goto(row, col int) { h.vt().moveCursor(col, row) }

// GotoCol moves the cursor to col keeping the current row.
func (h *ansiHandler) GotoCol(col int) {
	t := h.vt()
	t.moveCursor(col, t.cursorRow)
}

// GotoLine moves the cursor to row keeping the current column.
func (h *ansiHandler) GotoLine(row int) {
	t := h.vt()
	t.moveCursor(t.cursorCol, row)
}

// MoveUp moves the cursor n rows up.
func (h *ansiHandler) MoveUp(n int) {
	t := h.vt()
	t.moveCursor(t.cursorCol, t.cursorRow-n)
}

// MoveDown moves the cursor n rows down.
func (h *ansiHandler) MoveDown(n int) {
	t := h.vt()
	t.moveCursor(t.cursorCol, t.cursorRow+n)
}

// MoveForward moves the cursor n columns right.
func (h *ansiHandler) MoveForward(n int) {
	t := h.vt()
	t.moveCursor(t.cursorCol+n, t.cursorRow)
}

// MoveBackward moves the cursor n columns left.
func (h *ansiHandler) MoveBackward(n int) {
	t := h.vt()
	t.moveCursor(t.cursorCol-n, t.cursorRow)
}

// MoveUpCr moves the cursor n rows up to the first column.
func (h *ansiHandler) MoveUpCr(n int) {
	t := h.vt()
	t.moveCursor(0, t.cursorRow-n)
}

// MoveDownCr moves the cursor n rows down to the first column.
func (h *ansiHandler) MoveDownCr(n int) {
	t := h.vt()
	t.moveCursor(0, t.cursorRow+n)
}

// SaveCursorPosition stores the cursor position and the active attributes.
func (h *ansiHandler) SaveCursorPosition() {
	t := h.vt()
	t.saved = savedCursor{col: t.cursorCol, row: t.cursorRow, attrs: t.attrs}
}

// RestoreCursorPosition restores the state stored by SaveCursorPosition.
func (h *ansiHandler) RestoreCursorPosition() {
	t := h.vt()
	t.attrs = t.saved.attrs
	t.moveCursor(t.saved.col, t.saved.row)
}

// ClearLine erases part of the cursor row.
func (h *ansiHandler) ClearLine(mode ansicode.LineClearMode) {
	t := h.vt()
	switch mode {
	case ansicode.LineClearModeRight:
		t.eraseInRow(t.cursorRow, t.cursorCol, t.cols)
	case ansicode.LineClearModeLeft:
		t.eraseInRow(t.cursorRow, 0, t.cursorCol+1)
	case ansicode.LineClearModeAll:
		t.eraseInRow(t.cursorRow, 0, t.cols)
	}
}

// ClearScreen erases part of the display.
func (h *ansiHandler) ClearScreen(mode ansicode.ClearMode) {
	t := h.vt()
	switch mode {
	case ansicode.ClearModeBelow:
		t.eraseInRow(t.cursorRow, t.cursorCol, t.cols)
		t.eraseRows(t.cursorRow+1, t.rows)
	case ansicode.ClearModeAbove:
		t.eraseRows(0, t.cursorRow)
		t.eraseInRow(t.cursorRow, 0, t.cursorCol+1)
	case ansicode.ClearModeAll:
		t.eraseRows(0, t.rows)
	}
}

// EraseChars blanks n cells starting at the cursor.
func (h *ansiHandler) EraseChars(n int) {
	t := h.vt()
	t.eraseInRow(t.cursorRow, t.cursorCol, t.cursorCol+n)
}

// InsertBlank shifts the cells right of the cursor n columns right and
// blanks the gap.
func (h *ansiHandler) InsertBlank(n int) {
	t := h.vt()
	n = clamp(n, 0, t.cols-t.cursorCol)
	if n == 0 {
		return
	}

	row := t.cells[t.cursorRow*t.cols : (t.cursorRow+1)*t.cols]
	copy(row[t.cursorCol+n:], row[t.cursorCol:])
	t.eraseInRow(t.cursorRow, t.cursorCol, t.cursorCol+n)
}

// DeleteChars removes n cells at the cursor shifting the rest of the row
// left.
func (h *ansiHandler) DeleteChars(n int) {
	t := h.vt()
	n = clamp(n, 0, t.cols-t.cursorCol)
	if n == 0 {
		return
	}

	row := t.cells[t.cursorRow*t.cols : (t.cursorRow+1)*t.cols]
	copy(row[t.cursorCol:], row[t.cursorCol+n:])
	t.eraseInRow(t.cursorRow, t.cols-n, t.cols)
}

// InsertBlankLines inserts n blank rows at the cursor row.
func (h *ansiHandler) InsertBlankLines(n int) {
	t := h.vt()
	if t.cursorRow < t.scrollTop || t.cursorRow >= t.scrollBottom {
		return
	}
	t.scrollRegionDown(t.cursorRow, t.scrollBottom, n)
}

// DeleteLines removes n rows at the cursor row.
func (h *ansiHandler) DeleteLines(n int) {
	t := h.vt()
	if t.cursorRow < t.scrollTop || t.cursorRow >= t.scrollBottom {
		return
	}
	t.scrollRegionUp(t.cursorRow, t.scrollBottom, n)
}

// ScrollUp scrolls the scrolling region n rows up.
func (h *ansiHandler) ScrollUp(n int) { h.vt().scrollUp(n) }

// ScrollDown scrolls the scrolling region n rows down.
func (h *ansiHandler) ScrollDown(n int) { h.vt().scrollDown(n) }

// SetScrollingRegion restricts scrolling to the 1-based rows [top, bottom]
// and homes the cursor.
func (h *ansiHandler) SetScrollingRegion(top, bottom int) {
	t := h.vt()

	top--
	if top < 0 {
		top = 0
	}
	if bottom <= 0 || bottom > t.rows {
		bottom = t.rows
	}
	if top >= bottom-1 {
		return
	}

	t.scrollTop, t.scrollBottom = top, bottom
	t.moveCursor(0, 0)
}

// Decaln fills the screen with 'E'.
func (h *ansiHandler) Decaln() {
	t := h.vt()
	t.fillRows(0, t.rows, Cell{Char: 'E', Fg: DefaultFg, Bg: DefaultBg})
	t.markRows(0, t.rows)
}

// Substitute prints a replacement character at the cursor.
func (h *ansiHandler) Substitute() { h.vt().print('?') }

// ResetState restores the power-on state and clears the screen.
func (h *ansiHandler) ResetState() {
	t := h.vt()
	t.reset()
	t.markRows(0, t.rows)
}

// SetMode enables a terminal mode.
func (h *ansiHandler) SetMode(mode ansicode.TerminalMode) { h.vt().setMode(mode, true) }

// UnsetMode disables a terminal mode.
func (h *ansiHandler) UnsetMode(mode ansicode.TerminalMode) { h.vt().setMode(mode, false) }

func (t *VT) setMode(mode ansicode.TerminalMode, set bool) {
	switch mode {
	case ansicode.TerminalModeShowCursor:
		t.setCursorVisible(set)
	case ansicode.TerminalModeLineWrap:
		t.autoWrap = set
		if !set {
			t.wrapPending = false
		}
	case ansicode.TerminalModeLineFeedNewLine:
		t.lineFeedNewLine = set
	}
}

// SetTerminalCharAttribute applies an SGR attribute to the characters
// printed after it.
func (h *ansiHandler) SetTerminalCharAttribute(attr ansicode.TerminalCharAttribute) {
	t := h.vt()
	switch attr.Attr {
	case ansicode.CharAttributeReset:
		t.attrs = defaultAttributes
	case ansicode.CharAttributeBold:
		t.attrs.bold = true
	case ansicode.CharAttributeCancelBold, ansicode.CharAttributeCancelBoldDim:
		t.attrs.bold = false
	case ansicode.CharAttributeUnderline, ansicode.CharAttributeDoubleUnderline,
		ansicode.CharAttributeCurlyUnderline, ansicode.CharAttributeDottedUnderline,
		ansicode.CharAttributeDashedUnderline:
		t.attrs.underline = true
	case ansicode.CharAttributeCancelUnderline:
		t.attrs.underline = false
	case ansicode.CharAttributeReverse:
		t.attrs.reverse = true
	case ansicode.CharAttributeCancelReverse:
		t.attrs.reverse = false
	case ansicode.CharAttributeHidden:
		t.attrs.hidden = true
	case ansicode.CharAttributeCancelHidden:
		t.attrs.hidden = false
	case ansicode.CharAttributeForeground:
		t.attrs.fg, t.attrs.fgIndex = t.resolveColor(attr, DefaultFg, defaultAttributes.fgIndex)
	case ansicode.CharAttributeBackground:
		t.attrs.bg, _ = t.resolveColor(attr, DefaultBg, 0)
	}
}

// resolveColor returns the color selected by attr together with its palette
// index (-1 for direct colors). Default colors resolve to def.
func (t *VT) resolveColor(attr ansicode.TerminalCharAttribute, def uint32, defIndex int) (uint32, int) {
	switch {
	case attr.RGBColor != nil:
		return uint32(attr.RGBColor.R)<<16 | uint32(attr.RGBColor.G)<<8 | uint32(attr.RGBColor.B), -1
	case attr.IndexedColor != nil:
		index := int(attr.IndexedColor.Index) & 0xff
		return t.palette[index], index
	case attr.NamedColor != nil:
		// Named colors past the palette select the default colors
		if index := int(*attr.NamedColor); index >= 0 && index < len(t.palette) {
			return t.palette[index], index
		}
	}
	return def, defIndex
}

// SetColor replaces a palette entry. Cells that were already printed keep
// their colors.
func (h *ansiHandler) SetColor(index int, c color.Color) {
	t := h.vt()
	if index < 0 || index >= len(t.palette) {
		return
	}
	t.palette[index] = rgb(c)
}

// ResetColor restores a palette entry.
func (h *ansiHandler) ResetColor(index int) {
	t := h.vt()
	if index < 0 || index >= len(t.palette) {
		return
	}
	t.palette[index] = defaultPalette[index]
}

// The console has no input channel, no window and a single character set;
// the remaining actions are accepted and ignored.

func (h *ansiHandler) ApplicationCommandReceived([]byte) {}
func (h *ansiHandler) Bell() {}
func (h *ansiHandler) CellSizePixels() {}
func (h *ansiHandler) ClipboardLoad(byte, string) {}
func (h *ansiHandler) ClipboardStore(byte, []byte) {}
func (h *ansiHandler) ConfigureCharset(ansicode.CharsetIndex, ansicode.Charset) {}
func (h *ansiHandler) DeviceStatus(int) {}
func (h *ansiHandler) IdentifyTerminal(byte) {}
func (h *ansiHandler) PopKeyboardMode(int) {}
func (h *ansiHandler) PopTitle() {}
func (h *ansiHandler) PrivacyMessageReceived([]byte) {}
func (h *ansiHandler) PushKeyboardMode(ansicode.KeyboardMode) {}
func (h *ansiHandler) PushTitle() {}
func (h *ansiHandler) ReportKeyboardMode() {}
func (h *ansiHandler) ReportModifyOtherKeys() {}
func (h *ansiHandler) SetActiveCharset(int) {}
func (h *ansiHandler) SetCursorStyle(ansicode.CursorStyle) {}
func (h *ansiHandler) SetDynamicColor(string, int, string) {}
func (h *ansiHandler) SetHyperlink(*ansicode.Hyperlink) {}
func (h *ansiHandler) SetKeyboardMode(ansicode.KeyboardMode, ansicode.KeyboardModeBehavior) {}
func (h *ansiHandler) SetKeypadApplicationMode() {}
func (h *ansiHandler) SetModifyOtherKeys(ansicode.ModifyOtherKeys) {}
func (h *ansiHandler) SetTitle(string) {}
func (h *ansiHandler) SetWorkingDirectory(string) {}
func (h *ansiHandler) SixelReceived([][]uint16, []byte) {}
func (h *ansiHandler) StartOfStringReceived([]byte) {}
func (h *ansiHandler) TextAreaSizeChars() {}
func (h *ansiHandler) TextAreaSizePixels() {}
func (h *ansiHandler) UnsetKeypadApplicationMode() {}
