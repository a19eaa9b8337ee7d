package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadScript reads a command script, one command per line.
// Lines are trimmed; blank lines are kept so line numbers stay meaningful.
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
func ReadScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	return lines, nil
}

// WriteScript writes commands to path, one per line, replacing any
// existing file.
func WriteScript(path string, commands []string) error {
	var b strings.Builder
	for _, cmd := range commands {
		b.WriteString(cmd)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}
