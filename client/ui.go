package main

import (
	"errors"
	"os"

	"github.com/nsf/termbox-go"

	"github.com/driftpad/driftpad/delta"
)

// errExit marks a deliberate quit, as opposed to a UI failure.
var errExit = errors.New("driftpad: exiting")

// runUI initializes termbox, draws the bootstrapped document and runs the
// main loop until the user quits.
func runUI() error {
	err := termbox.Init()
	if err != nil {
		return err
	}
	defer termbox.Close()

	vw.setSize(termbox.Size())
	vw.draw()

	err = mainLoop()
	if err != nil && !errors.Is(err, errExit) {
		return err
	}

	return nil
}

// mainLoop redraws on every key event and on every change the sync engine
// applies to the buffer.
func mainLoop() error {
	termboxChan := getTermboxChan()

	for {
		select {
		case termboxEvent := <-termboxChan:
			err := handleTermboxEvent(termboxEvent)
			if err != nil {
				return err
			}
			vw.draw()
		case <-redraw:
			vw.draw()
		}
	}
}

// getTermboxChan returns a channel of termbox events, repeatedly waiting on
// user input.
func getTermboxChan() chan termbox.Event {
	termboxChan := make(chan termbox.Event)

	go func() {
		for {
			termboxChan <- termbox.PollEvent()
		}
	}()

	return termboxChan
}

// handleTermboxEvent turns key input into engine edits and cursor movement.
func handleTermboxEvent(ev termbox.Event) error {
	switch ev.Type {
	case termbox.EventResize:
		vw.setSize(ev.Width, ev.Height)
		return nil
	case termbox.EventKey:
	default:
		return nil
	}

	switch ev.Key {

	// The default keys for exiting a session are Esc and Ctrl+C.
	case termbox.KeyEsc, termbox.KeyCtrlC:
		return errExit

	// The default key for saving the editor's contents is Ctrl+S.
	case termbox.KeyCtrlS:
		if fileName == "" {
			fileName = "driftpad-content.txt"
		}

		content := string(flatten(vw.snapshot()))
		if err := os.WriteFile(fileName, []byte(content), 0644); err != nil { // skipcq: GSC-G302
			vw.setStatus("Failed to save to " + fileName)
			logger.Errorf("failed to save to %s: %v", fileName, err)
			return nil
		}

		vw.setStatus("Saved document to " + fileName)

	// The default keys for moving left inside the text area are the left arrow key, and Ctrl+B (move backward).
	case termbox.KeyArrowLeft, termbox.KeyCtrlB:
		vw.moveCursor(-1, 0)

	// The default keys for moving right inside the text area are the right arrow key, and Ctrl+F (move forward).
	case termbox.KeyArrowRight, termbox.KeyCtrlF:
		vw.moveCursor(1, 0)

	// The default keys for moving up inside the text area are the up arrow key, and Ctrl+P (move to previous line).
	case termbox.KeyArrowUp, termbox.KeyCtrlP:
		vw.moveCursor(0, -1)

	// The default keys for moving down inside the text area are the down arrow key, and Ctrl+N (move to next line).
	case termbox.KeyArrowDown, termbox.KeyCtrlN:
		vw.moveCursor(0, 1)

	case termbox.KeyHome:
		vw.cursorHome()

	case termbox.KeyEnd:
		vw.cursorEnd()

	// The default keys for deleting the character before the cursor are Backspace and Backspace2.
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		deleteAt(vw.cursor - 1)
		vw.moveCursor(-1, 0)

	// Delete removes the character under the cursor.
	case termbox.KeyDelete:
		deleteAt(vw.cursor)

	// Ctrl+T toggles bold on the character before the cursor.
	case termbox.KeyCtrlT:
		toggleAttr(vw.cursor-1, "bold", "true")

	// Ctrl+U toggles underline on the character before the cursor.
	case termbox.KeyCtrlU:
		toggleAttr(vw.cursor-1, "underline", "true")

	// The Tab key inserts 4 spaces to simulate a "tab".
	case termbox.KeyTab:
		for i := 0; i < 4; i++ {
			insertRune(' ')
		}

	// The Enter key inserts a newline character to the editor's content.
	case termbox.KeyEnter:
		insertRune('\n')

	// The Space key inserts a space character to the editor's content.
	case termbox.KeySpace:
		insertRune(' ')

	// Every other key is eligible to be a candidate for insertion.
	default:
		if ev.Ch != 0 {
			insertRune(ev.Ch)
		}
	}

	return nil
}

// insertRune queues an insert at the cursor and advances it. The buffer
// itself is updated by the engine, which owns it.
func insertRune(r rune) {
	logger.Debugf("local insert: %q at %d", r, vw.cursor)

	var d delta.Delta
	if vw.cursor > 0 {
		d = append(d, delta.Retain(vw.cursor))
	}
	d = append(d, delta.Insert(string(r), nil))

	eng.Edit(d)
	vw.cursor++
}

// deleteAt queues a single-unit delete at the given offset.
func deleteAt(index int) {
	if index < 0 || index >= len(vw.snapshot()) {
		return
	}

	logger.Debugf("local delete at %d", index)

	var d delta.Delta
	if index > 0 {
		d = append(d, delta.Retain(index))
	}
	d = append(d, delta.Delete(1))

	eng.Edit(d)
}

// toggleAttr flips a formatting attribute on the unit at the given offset.
func toggleAttr(index int, name, value string) {
	cells := vw.snapshot()
	if index < 0 || index >= len(cells) {
		return
	}

	attr := delta.Set(value)
	if cells[index].Attrs[name] != "" {
		attr = delta.Unset()
	}

	var d delta.Delta
	if index > 0 {
		d = append(d, delta.Retain(index))
	}
	d = append(d, delta.Format(1, delta.AttrMap{name: attr}))

	eng.Edit(d)
}
