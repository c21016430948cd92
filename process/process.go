// Package process enumerates running processes and the load address of
// their main image. It is a helper for callers choosing what to instrument;
// the hooking code itself never needs it.
package process

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gops "github.com/shirou/gopsutil/v4/process"
)

// procRoot is where the process information pseudo-filesystem is mounted.
var procRoot = "/proc"

// Process describes one running process.
type Process struct {
	ID int
	// Base is the start of the first mapping, normally the executable image.
	Base uintptr
	Name string
}

// List returns every process whose metadata is readable by the caller.
// Processes that exit or deny access while being listed are skipped.
func List() ([]Process, error) {
	pids, err := gops.Pids()
	if err != nil {
		return nil, fmt.Errorf("list pids: %w", err)
	}
	var out []Process
	for _, pid := range pids {
		p, err := FromID(int(pid))
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// FromID describes the process with the given id.
func FromID(id int) (Process, error) {
	gp, err := gops.NewProcess(int32(id))
	if err != nil {
		return Process{}, fmt.Errorf("process %d: %w", id, err)
	}
	name, err := gp.Name()
	if err != nil {
		return Process{}, fmt.Errorf("process %d name: %w", id, err)
	}
	base, err := imageBase(id)
	if err != nil {
		return Process{}, err
	}
	return Process{ID: id, Base: base, Name: strings.TrimSpace(name)}, nil
}

// Self describes the calling process.
func Self() (Process, error) {
	return FromID(os.Getpid())
}

func imageBase(id int) (uintptr, error) {
	//nolint:gosec // G304: path is built from the proc root and a numeric id.
	f, err := os.Open(filepath.Join(procRoot, strconv.Itoa(id), "maps"))
	if err != nil {
		return 0, fmt.Errorf("process %d maps: %w", id, err)
	}
	defer f.Close() // nolint:errcheck

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("process %d maps: %w", id, err)
		}
		return 0, fmt.Errorf("process %d has no mappings", id)
	}
	return parseBase(scanner.Text())
}

// parseBase reads the start address of a maps line.
func parseBase(line string) (uintptr, error) {
	lo, _, ok := strings.Cut(line, "-")
	if !ok {
		return 0, fmt.Errorf("malformed maps line %q", line)
	}
	base, err := strconv.ParseUint(lo, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed maps line %q: %w", line, err)
	}
	return uintptr(base), nil
}
