// Package trace parses memory access traces. A trace is a text file with
// one access per line, an "r" or "w" marker followed by a hex address:
//
//	r 0x7f2a10c0
//	w 0x7f2a10c4
//
// Blank lines and lines starting with '#' are skipped.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Access is one parsed trace record.
type Access struct {
	// Addr is the accessed address.
	Addr uint64
	// Write is true for store accesses.
	Write bool
}

// ParseFile reads and parses a trace file.
func ParseFile(path string) ([]Access, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	accesses, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return accesses, nil
}

// Parse reads a trace from r.
func Parse(r io.Reader) ([]Access, error) {
	var accesses []Access

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		access, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		accesses = append(accesses, access)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return accesses, nil
}

func parseLine(line string) (Access, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Access{}, fmt.Errorf("expected \"r|w <address>\", got %q", line)
	}

	var write bool
	switch strings.ToLower(fields[0]) {
	case "r":
		write = false
	case "w":
		write = true
	default:
		return Access{}, fmt.Errorf("unknown access type %q", fields[0])
	}

	// Addresses appear both with and without a 0x prefix; either way they
	// are hex.
	raw := strings.TrimPrefix(strings.ToLower(fields[1]), "0x")
	addr, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return Access{}, fmt.Errorf("bad address %q: %w", fields[1], err)
	}

	return Access{Addr: addr, Write: write}, nil
}
