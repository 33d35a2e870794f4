package history

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Session describes one stored studio session.
type Session struct {
	ID        string
	Path      string
	StartedAt time.Time
	Version   string
	Closed    bool
}

// ListSessions returns stored sessions sorted by newest start time first.
// When both a live and a compressed file exist for one session (a crash
// during compression), the live file wins because it is known complete.
func ListSessions(rootDir string) ([]Session, error) {
	if rootDir == "" {
		var err error

		rootDir, err = DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve history directory: %w", err)
		}
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("list history sessions: %w", err)
	}

	seen := map[string]bool{}
	sessions := make([]Session, 0, len(entries))

	// ReadDir is lexical, so a session's live file sorts before its
	// compressed file and the seen map keeps the live one.
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}

		id, closed, ok := sessionFileID(ent.Name())
		if !ok || seen[id] {
			continue
		}

		path := filepath.Join(rootDir, ent.Name())

		meta, err := readSessionMeta(path, closed)
		if err != nil {
			continue
		}

		seen[id] = true
		sessions = append(sessions, Session{
			ID:        meta.SessionID,
			Path:      path,
			StartedAt: meta.StartedAt,
			Version:   meta.Version,
			Closed:    closed,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})

	return sessions, nil
}

// ReadSession loads a session's header and events. It prefers the live
// stream so open and crashed sessions stay readable, and falls back to the
// compressed stream once the session is closed.
func ReadSession(rootDir, sessionID string) (Meta, []Event, error) {
	if err := validateSessionID(sessionID); err != nil {
		return Meta{}, nil, err
	}

	if rootDir == "" {
		var err error

		rootDir, err = DefaultDir()
		if err != nil {
			return Meta{}, nil, fmt.Errorf("resolve history directory: %w", err)
		}
	}

	path := livePath(rootDir, sessionID)
	closed := false

	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = closedPath(rootDir, sessionID)
		closed = true
	}

	file, err := os.Open(path) //nolint:gosec // sessionID is validated and controlled
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, nil, fmt.Errorf("session %s not found", sessionID)
		}

		return Meta{}, nil, fmt.Errorf("open session stream: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	var reader io.Reader = file

	if closed {
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			return Meta{}, nil, fmt.Errorf("create gzip reader: %w", err)
		}

		defer func() {
			_ = gzipReader.Close()
		}()

		reader = gzipReader
	}

	return scanSession(reader)
}

func scanSession(r io.Reader) (Meta, []Event, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		meta   Meta
		events []Event
		first  = true
	)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if first {
			first = false

			if err := json.Unmarshal(line, &meta); err != nil || meta.Type != TypeMeta {
				return Meta{}, nil, errors.New("session stream is missing its meta header")
			}

			continue
		}

		// Skip lines that do not decode; a partial trailing line can
		// appear if the writer crashed mid-record.
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		events = append(events, event)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return meta, events, fmt.Errorf("scan session events: %w", err)
	}

	return meta, events, nil
}

// Clear removes all stored sessions and returns how many were removed.
func Clear(rootDir string) (int, error) {
	if rootDir == "" {
		var err error

		rootDir, err = DefaultDir()
		if err != nil {
			return 0, fmt.Errorf("resolve history directory: %w", err)
		}
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}

		return 0, fmt.Errorf("list history sessions: %w", err)
	}

	removed := 0
	seen := map[string]bool{}

	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}

		id, _, ok := sessionFileID(ent.Name())
		if !ok {
			continue
		}

		if err := os.Remove(filepath.Join(rootDir, ent.Name())); err != nil {
			return removed, fmt.Errorf("remove session %q: %w", id, err)
		}

		if !seen[id] {
			seen[id] = true
			removed++
		}
	}

	return removed, nil
}

// PruneOlderThan removes closed sessions started before the cutoff. Live
// sessions are never pruned.
func PruneOlderThan(rootDir string, cutoff time.Time) (int, error) {
	sessions, err := ListSessions(rootDir)
	if err != nil {
		return 0, err
	}

	removed := 0

	for _, session := range sessions {
		if !session.Closed {
			continue
		}

		if session.StartedAt.Before(cutoff) {
			if err := os.Remove(session.Path); err != nil {
				return removed, fmt.Errorf("prune session %q: %w", session.ID, err)
			}

			removed++
		}
	}

	return removed, nil
}

// DefaultRetention returns the default prune window.
func DefaultRetention() time.Duration {
	return defaultRetentionHours * time.Hour
}

func sessionFileID(name string) (id string, closed, ok bool) {
	switch {
	case strings.HasSuffix(name, closedSuffix):
		return strings.TrimSuffix(name, closedSuffix), true, true
	case strings.HasSuffix(name, liveSuffix):
		return strings.TrimSuffix(name, liveSuffix), false, true
	default:
		return "", false, false
	}
}

func readSessionMeta(path string, closed bool) (Meta, error) {
	file, err := os.Open(path) //nolint:gosec // controlled directory
	if err != nil {
		return Meta{}, err
	}

	defer func() {
		_ = file.Close()
	}()

	var reader io.Reader = file

	if closed {
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			return Meta{}, err
		}

		defer func() {
			_ = gzipReader.Close()
		}()

		reader = gzipReader
	}

	line, err := bufio.NewReader(reader).ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return Meta{}, err
	}

	var meta Meta
	if err := json.Unmarshal(bytes.TrimSpace(line), &meta); err != nil {
		return Meta{}, err
	}

	if meta.Type != TypeMeta {
		return Meta{}, errors.New("missing meta header")
	}

	return meta, nil
}
