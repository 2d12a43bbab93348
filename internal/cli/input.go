package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/semmy-space/dataprotect/internal/output"
)

// maxInput bounds values read from a pipe
const maxInput = 1 << 20

// readSecretInput reads a value without echo from the terminal, or the
// whole of stdin when it is not a terminal. A single trailing newline is
// dropped.
func readSecretInput(prompt string, g *Globals) ([]byte, error) {
	if g.interactive() {
		fmt.Fprint(os.Stderr, prompt)
		value, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		return value, err
	}
	if g.NoInput && term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, output.NewCLIError(output.ExitUsage, "value required").
			WithHint("Pass the value as an argument or pipe it on stdin")
	}
	return readPiped(os.Stdin)
}

func readPiped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(bufio.NewReader(r), maxInput))
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	return data, nil
}
