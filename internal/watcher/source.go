package watcher

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one append-only session-log file. ID keys the ingestion cursor
// and must stay disjoint across sources, so it is the cleaned file path;
// same-named files in different watch directories get separate cursors.
type Source struct {
	ID   string
	Path string
}

// NewSource derives the durable cursor key for a file path.
func NewSource(path string) Source {
	return Source{ID: filepath.Clean(path), Path: path}
}

// DiscoverSources scans the watch directories for *.jsonl files. Missing
// directories are skipped; the set of sources may grow between polls.
func DiscoverSources(dirs []string) ([]Source, error) {
	var sources []Source
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
		for _, path := range matches {
			sources = append(sources, NewSource(path))
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}

// rawLine is one unprocessed log line with the byte offset just past it.
type rawLine struct {
	data   []byte
	endPos int64
}

// readNewLines returns the complete lines appended since pos. A trailing
// partial line (no newline yet) is left for the next poll. If the file has
// shrunk below pos it is re-read from the start; dedup makes that safe.
func readNewLines(path string, pos int64) ([]rawLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.Size() < pos {
		pos = 0
	}
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to %d: %w", pos, err)
	}

	var lines []rawLine
	r := bufio.NewReaderSize(f, 1<<20)
	offset := pos
	for {
		data, err := r.ReadBytes('\n')
		if err == io.EOF {
			// Partial line without newline: the writer is mid-append.
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}
		offset += int64(len(data))
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 {
			lines = append(lines, rawLine{data: trimmed, endPos: offset})
		} else if len(lines) > 0 {
			// Blank line: advance the previous entry's cursor past it.
			lines[len(lines)-1].endPos = offset
		}
	}
	return lines, nil
}
