package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"

	"github.com/driftpad/driftpad/editor"
)

// embedRune stands in for embedded objects on screen.
const embedRune = '￼'

// view renders a snapshot of the buffer to the terminal. The snapshot is
// replaced by the engine goroutine through setCells; everything else runs on
// the UI goroutine, so a mutex covers the cells.
type view struct {
	mu    sync.Mutex
	cells []editor.Cell

	cursor    int
	width     int
	height    int
	showMsg   bool
	statusMsg string
}

func newView() *view {
	return &view{}
}

func (v *view) setSize(w, h int) {
	v.width = w
	v.height = h
}

// setCells swaps in a fresh buffer snapshot.
func (v *view) setCells(cells []editor.Cell) {
	v.mu.Lock()
	v.cells = cells
	v.mu.Unlock()
}

func (v *view) snapshot() []editor.Cell {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cells
}

// flatten converts a snapshot into runes for cursor line math.
func flatten(cells []editor.Cell) []rune {
	out := make([]rune, 0, len(cells))
	for _, c := range cells {
		if c.Unit.IsEmbed() {
			out = append(out, embedRune)
			continue
		}
		for _, r := range c.Unit.Ch {
			out = append(out, r)
		}
	}
	return out
}

// cellAttrs maps a cell's attributes onto termbox display attributes.
func cellAttrs(attrs map[string]string) (termbox.Attribute, termbox.Attribute) {
	fg := termbox.ColorDefault
	bg := termbox.ColorDefault

	if name, ok := attrs["color"]; ok {
		if c, ok := termColors[name]; ok {
			fg = c
		}
	}
	if attrs["bold"] != "" {
		fg |= termbox.AttrBold
	}
	if attrs["underline"] != "" {
		fg |= termbox.AttrUnderline
	}
	if attrs["italic"] != "" {
		fg |= termbox.AttrReverse
	}

	return fg, bg
}

var termColors = map[string]termbox.Attribute{
	"black":   termbox.ColorBlack,
	"red":     termbox.ColorRed,
	"green":   termbox.ColorGreen,
	"yellow":  termbox.ColorYellow,
	"blue":    termbox.ColorBlue,
	"magenta": termbox.ColorMagenta,
	"cyan":    termbox.ColorCyan,
	"white":   termbox.ColorWhite,
}

// draw repaints the whole screen from the current snapshot.
func (v *view) draw() {
	cells := v.snapshot()
	text := flatten(cells)

	if v.cursor > len(text) {
		v.cursor = len(text)
	}

	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	cx, cy := v.calcCursorXY(text, v.cursor)
	termbox.SetCursor(cx-1, cy-1)

	x, y := 0, 0
	for _, c := range cells {
		r := embedRune
		if !c.Unit.IsEmbed() {
			rs := []rune(c.Unit.Ch)
			if len(rs) == 0 {
				continue
			}
			r = rs[0]
		}

		if r == '\n' {
			x = 0
			y++
			continue
		}

		if x < v.width {
			fg, bg := cellAttrs(c.Attrs)
			termbox.SetCell(x, y, r, fg, bg)
		}
		x += runewidth.RuneWidth(r)
	}

	if v.showMsg {
		v.paintStatus(v.statusMsg)
	} else {
		v.paintStatus(fmt.Sprintf("cursor=%d, len(text)=%d", v.cursor, len(text)))
	}

	// Flush back buffer!
	termbox.Flush()
}

func (v *view) paintStatus(msg string) {
	for i, r := range []rune(msg) {
		termbox.SetCell(i, v.height-1, r, termbox.ColorDefault, termbox.ColorDefault)
	}
}

// setStatus shows a message in the status bar for a few seconds.
func (v *view) setStatus(msg string) {
	v.statusMsg = msg
	v.showMsg = true

	_ = time.AfterFunc(5*time.Second, func() {
		v.showMsg = false
	})
}

// moveCursor moves the cursor horizontally by x or vertically by y.
func (v *view) moveCursor(x, y int) {
	text := flatten(v.snapshot())
	if len(text) == 0 {
		return
	}

	newCursor := v.cursor + x

	if y > 0 {
		newCursor = calcCursorDown(text, v.cursor)
	}
	if y < 0 {
		newCursor = calcCursorUp(text, v.cursor)
	}

	if newCursor > len(text) {
		newCursor = len(text)
	}
	if newCursor < 0 {
		newCursor = 0
	}

	v.cursor = newCursor
}

func (v *view) cursorHome() {
	v.cursor = 0
}

func (v *view) cursorEnd() {
	v.cursor = len(flatten(v.snapshot()))
}

// For calcCursorUp and calcCursorDown, newline characters are found by
// iterating backward and forward from the current cursor position. These
// characters are taken as the "start" and "end" of the current line. The
// offset from the start of the current line to the cursor is used to place
// the cursor on the target line, clamped to that line's length.

// calcCursorUp calculates the intended cursor position after moving up one line.
func calcCursorUp(text []rune, cursor int) int {
	pos := cursor
	offset := 0

	// If the initial cursor is out of the bounds of the text or already on a newline, move it.
	if pos == len(text) || text[pos] == '\n' {
		offset++
		pos--
	}

	if pos < 0 {
		pos = 0
	}

	start, end := pos, pos

	// Find the start of the current line.
	for start > 0 && text[start] != '\n' {
		start--
	}

	// If the cursor is already on the first line, move to the beginning of the text.
	if start == 0 {
		return 0
	}

	// Find the end of the current line.
	for end < len(text) && text[end] != '\n' {
		end++
	}

	// Find the start of the previous line.
	prevStart := start - 1
	for prevStart >= 0 && text[prevStart] != '\n' {
		prevStart--
	}

	// Calculate the distance from the start of the current line to the cursor.
	offset += pos - start
	if offset <= start-prevStart {
		return prevStart + offset
	}
	return start
}

// calcCursorDown calculates the intended cursor position after moving down one line.
func calcCursorDown(text []rune, cursor int) int {
	pos := cursor
	offset := 0

	// If the initial cursor is out of the bounds of the text or already on a newline, move it.
	if pos == len(text) || text[pos] == '\n' {
		offset++
		pos--
	}

	if pos < 0 {
		pos = 0
	}

	start, end := pos, pos

	// Find the start of the current line.
	for start > 0 && text[start] != '\n' {
		start--
	}

	// The start of the first line is not a newline character, unlike the
	// other lines in the text.
	if start == 0 && text[start] != '\n' {
		offset++
	}

	// Find the end of the current line.
	for end < len(text) && text[end] != '\n' {
		end++
	}

	// When the cursor sits on a newline, end has to move past it, otherwise
	// start == end.
	if text[pos] == '\n' && cursor != 0 {
		end++
	}

	// If the cursor is already on the last line, move to the end of the text.
	if end == len(text) {
		return len(text)
	}

	// Find the end of the next line.
	nextEnd := end + 1
	for nextEnd < len(text) && text[nextEnd] != '\n' {
		nextEnd++
	}

	// Calculate the distance from the start of the current line to the cursor.
	offset += pos - start
	if offset < nextEnd-end {
		return end + offset
	}
	return nextEnd
}

// calcCursorXY converts a cursor offset to screen coordinates.
func (v *view) calcCursorXY(text []rune, index int) (int, int) {
	x := 1
	y := 1

	if index < 0 {
		return x, y
	}

	if index > len(text) {
		index = len(text)
	}

	for i := 0; i < index; i++ {
		if text[i] == '\n' {
			x = 1
			y++
		} else {
			x = x + runewidth.RuneWidth(text[i])
		}
	}
	return x, y
}
