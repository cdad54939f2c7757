package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Entry is one line of input history and the mode it was entered in.
type Entry struct {
	Line string
	Mode inputMode
}

// String encodes the entry as one line of the history file.
func (e Entry) String() string { return e.Mode.tag() + e.Line }

// parseEntry decodes a line of the history file. Lines without a mode tag
// belong to eval mode.
func parseEntry(line string) Entry {
	for _, mode := range []inputMode{modeEval, modeCtrl} {
		if s, ok := strings.CutPrefix(line, mode.tag()); ok {
			return Entry{Line: s, Mode: mode}
		}
	}

	return Entry{Line: line, Mode: modeEval}
}

// History is the input history of the prompt, persisted one entry per line.
// A History with an empty path is kept in memory only.
type History struct {
	mu      sync.RWMutex
	path    string
	entries []Entry
}

// NewHistory returns an empty history stored at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with those stored in the history file. A missing
// file is an empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil

	if h.path == "" {
		return nil
	}

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			h.entries = append(h.entries, parseEntry(line))
		}
	}

	return sc.Err()
}

// Add records line as the newest entry. An equal entry recorded earlier is
// moved rather than repeated.
func (h *History) Add(line string, mode inputMode) error {
	e := Entry{Line: strings.TrimSpace(line), Mode: mode}
	if e.Line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	i := slices.Index(h.entries, e)
	if i == len(h.entries)-1 && i >= 0 {
		return nil
	}

	h.entries = append(h.entries, e)

	if i < 0 {
		return h.append(e)
	}

	h.entries = slices.Delete(h.entries, i, i+1)

	return h.rewrite()
}

// At returns the entry at index i; 0 is the oldest.
func (h *History) At(i int) (Entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return Entry{}, ErrOutOfRange
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of every entry, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// search returns the index of the nearest entry in mode, stepping from
// index from by step, or -1.
func (h *History) search(from, step int, mode inputMode) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := from + step; i >= 0 && i < len(h.entries); i += step {
		if h.entries[i].Mode == mode {
			return i
		}
	}

	return -1
}

func (h *History) append(e Entry) error {
	if h.path == "" {
		return nil
	}

	f, err := h.open(os.O_APPEND)
	if err != nil {
		return err
	}

	_, err = f.WriteString(e.String() + "\n")

	return errors.Join(err, f.Close())
}

func (h *History) rewrite() error {
	if h.path == "" {
		return nil
	}

	f, err := h.open(os.O_TRUNC)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, e := range h.entries {
		_, _ = w.WriteString(e.String() + "\n")
	}

	return errors.Join(w.Flush(), f.Close())
}

func (h *History) open(flag int) (*os.File, error) {
	err := os.MkdirAll(filepath.Dir(h.path), 0o700)
	if err != nil {
		return nil, err
	}

	return os.OpenFile(h.path, flag|os.O_CREATE|os.O_WRONLY, 0o600)
}
