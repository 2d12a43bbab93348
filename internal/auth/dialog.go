package auth

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// TerminalDialog is the legacy prompt dialog on a terminal. The user types
// "p" for the device credential or "c" to cancel while the sensor waits.
//
// A single reader consumes the input for the dialog's lifetime; each line
// goes to whichever Show is current, so a dismissed dialog never takes input
// meant for a later one.
type TerminalDialog struct {
	in  io.Reader
	out io.Writer

	start  sync.Once
	mu     sync.Mutex
	choose func(DialogChoice)
}

// NewTerminalDialog creates a dialog reading choices from in.
func NewTerminalDialog(in io.Reader, out io.Writer) *TerminalDialog {
	return &TerminalDialog{in: in, out: out}
}

func (d *TerminalDialog) Show(choose func(DialogChoice)) {
	d.mu.Lock()
	d.choose = choose
	d.mu.Unlock()

	fmt.Fprintln(d.out, "Touch the fingerprint sensor, or type p + Enter for PIN, c + Enter to cancel.")
	d.start.Do(func() { go d.read() })
}

func (d *TerminalDialog) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.choose = nil
}

func (d *TerminalDialog) read() {
	scanner := bufio.NewScanner(d.in)
	for scanner.Scan() {
		var choice DialogChoice
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "p", "pin":
			choice = ChoiceFallback
		case "c", "cancel", "q":
			choice = ChoiceCancel
		default:
			continue
		}
		if choose := d.take(); choose != nil {
			choose(choice)
		}
	}
}

// take hands out the current callback once.
func (d *TerminalDialog) take() func(DialogChoice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	choose := d.choose
	d.choose = nil
	return choose
}
