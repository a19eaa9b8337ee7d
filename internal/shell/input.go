package shell

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// Prompt is shown before each interactive command.
const Prompt = "> "

// LineReader yields command lines. ReadLine returns io.EOF when input ends.
type LineReader interface {
	ReadLine() (string, error)
}

// ScannerReader reads lines from a non-interactive source.
type ScannerReader struct {
	scanner *bufio.Scanner
}

// NewScannerReader creates a LineReader over r.
func NewScannerReader(r io.Reader) *ScannerReader {
	return &ScannerReader{scanner: bufio.NewScanner(r)}
}

// ReadLine returns the next line without its terminator.
func (r *ScannerReader) ReadLine() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// LinesReader yields a fixed list of lines.
type LinesReader struct {
	lines []string
	next  int
}

// NewLinesReader creates a LineReader over lines.
func NewLinesReader(lines []string) *LinesReader {
	return &LinesReader{lines: lines}
}

// ReadLine returns the next line or io.EOF.
func (r *LinesReader) ReadLine() (string, error) {
	if r.next >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.next]
	r.next++
	return line, nil
}

// TerminalReader reads lines with editing and history from a terminal.
type TerminalReader struct {
	rl *readline.Instance
}

// NewTerminalReader starts line editing. historyFile may be empty to keep
// history in memory only.
func NewTerminalReader(historyFile string) (*TerminalReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, err
	}
	return &TerminalReader{rl: rl}, nil
}

// ReadLine returns the next edited line. Ctrl-C on an empty line and
// Ctrl-D end input.
func (r *TerminalReader) ReadLine() (string, error) {
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return "", io.EOF
			}
			continue
		}
		return line, err
	}
}

// Close restores the terminal.
func (r *TerminalReader) Close() error {
	return r.rl.Close()
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
