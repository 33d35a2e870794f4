// Package history persists studio sessions as JSON-lines event streams, one
// file per session: a meta header line followed by submit, response and
// error events. Live sessions are plain JSONL; closed sessions are gzipped.
package history

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const defaultRetentionHours = 24 * 30

// Event types recorded in a session stream.
const (
	TypeMeta     = "meta"
	TypeSubmit   = "submit"
	TypeResponse = "response"
	TypeError    = "error"
)

// Meta is the first line of every session file.
type Meta struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	StartedAt time.Time `json:"startedAt"`
	Version   string    `json:"version"`
}

// Event is one submission, response, or error in a studio session. Type
// discriminates which of the optional fields carry data.
type Event struct {
	Type string    `json:"type"`
	Seq  uint64    `json:"seq"`
	TS   time.Time `json:"ts"`

	// submit
	Requirement string   `json:"requirement,omitempty"`
	Kinds       []string `json:"kinds,omitempty"`

	// response
	Kind     string `json:"kind,omitempty"`
	Artifact string `json:"artifact,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// StoreOptions controls where and how a session stream is written.
type StoreOptions struct {
	SessionID string
	Dir       string
	Version   string
}

// Store appends events to one session's live JSONL stream and compresses it
// on Close.
type Store struct {
	mu sync.Mutex

	sessionID string
	path      string
	seq       uint64
	startedAt time.Time

	file   *os.File
	bw     *bufio.Writer
	closed bool
}

// NewStore opens the event stream for one studio session and writes the
// meta header.
func NewStore(opts StoreOptions) (*Store, error) {
	if err := validateSessionID(opts.SessionID); err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		var err error

		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	path := livePath(dir, opts.SessionID)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // sessionID is validated and controlled
	if err != nil {
		return nil, fmt.Errorf("open session stream: %w", err)
	}

	s := &Store{
		sessionID: opts.SessionID,
		path:      path,
		startedAt: time.Now().UTC(),
		file:      f,
		bw:        bufio.NewWriterSize(f, 64*1024),
	}

	meta := Meta{
		Type:      TypeMeta,
		SessionID: opts.SessionID,
		StartedAt: s.startedAt,
		Version:   opts.Version,
	}
	if err := s.writeLocked(&meta); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return nil, err
	}

	return s, nil
}

// SessionID returns the store's session id.
func (s *Store) SessionID() string {
	return s.sessionID
}

// AppendSubmit records a workspace submission: the requirement text and the
// artifact kinds requested with it.
func (s *Store) AppendSubmit(requirement string, kinds []string) error {
	return s.append(Event{Type: TypeSubmit, Requirement: requirement, Kinds: kinds})
}

// AppendResponse records one generated artifact.
func (s *Store) AppendResponse(kind, artifact string) error {
	return s.append(Event{Type: TypeResponse, Kind: kind, Artifact: artifact})
}

// AppendError records a failed generation.
func (s *Store) AppendError(message string) error {
	return s.append(Event{Type: TypeError, Message: message})
}

func (s *Store) append(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("history store is closed")
	}

	s.seq++
	ev.Seq = s.seq
	ev.TS = time.Now().UTC()

	return s.writeLocked(&ev)
}

// writeLocked marshals one line and flushes it so a live session can be
// tailed. Callers must hold s.mu (or be the sole owner, as in NewStore).
func (s *Store) writeLocked(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal history event: %w", err)
	}

	line = append(line, '\n')
	if _, err := s.bw.Write(line); err != nil {
		return fmt.Errorf("write history event: %w", err)
	}

	if err := s.bw.Flush(); err != nil {
		return fmt.Errorf("flush history event: %w", err)
	}

	return nil
}

// Close flushes the live stream and replaces it with a gzipped copy. The
// live file is kept in place when compression fails so no events are lost.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	var errs []error
	if s.bw != nil {
		if err := s.bw.Flush(); err != nil {
			errs = append(errs, err)
		}
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		if err := compressSession(s.path); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func compressSession(livePath string) (err error) {
	in, err := os.Open(livePath) //nolint:gosec // controlled path
	if err != nil {
		return fmt.Errorf("open session stream: %w", err)
	}

	defer func() {
		if closeErr := in.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := os.OpenFile(livePath+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // controlled path
	if err != nil {
		return fmt.Errorf("create compressed session: %w", err)
	}

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		_ = gz.Close()
		_ = out.Close()

		return fmt.Errorf("compress session stream: %w", err)
	}

	if err := gz.Close(); err != nil {
		_ = out.Close()

		return fmt.Errorf("finish compressed session: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close compressed session: %w", err)
	}

	if err := os.Remove(livePath); err != nil {
		return fmt.Errorf("remove live session stream: %w", err)
	}

	return nil
}

func validateSessionID(sessionID string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}

	if sessionID != filepath.Base(sessionID) || strings.Contains(sessionID, "..") || strings.ContainsAny(sessionID, `/\`) {
		return errors.New("invalid session id")
	}

	return nil
}
