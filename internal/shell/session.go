package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/roach88/armstrong/internal/engine"
	"github.com/roach88/armstrong/internal/ir"
)

// maxLoadDepth bounds nested load commands.
const maxLoadDepth = 16

// Recorder persists a session's command log and final working set.
// Implemented by *store.Store.
type Recorder interface {
	CreateSession(ctx context.Context, id, label string) error
	AppendCommand(ctx context.Context, sessionID, command string) (int64, error)
	WriteSnapshot(ctx context.Context, sessionID string, version ir.Version, fds []ir.FD) error
}

// Options configures a Session.
type Options struct {
	// Out receives command output. Defaults to io.Discard.
	Out io.Writer

	// Recorder, if set, receives every history command and the working set
	// after each one.
	Recorder Recorder

	// SessionID names the recorded session. Generated by IDGenerator when
	// empty.
	SessionID string

	// IDGenerator defaults to UUIDv7Generator.
	IDGenerator SessionIDGenerator

	// Label is stored with the recorded session.
	Label string

	// BaseDir resolves relative paths given to load, save and import.
	// Empty means the process working directory.
	BaseDir string

	// MaxRounds bounds apply-closure-rules. Zero means unlimited.
	MaxRounds int

	// CacheSize bounds memoized closures. Defaults to
	// engine.DefaultClosureCacheSize.
	CacheSize int

	// Strict makes Run stop at the first failing command.
	Strict bool
}

// Session is one interactive or scripted use of the engine.
//
// Session is not safe for concurrent use.
type Session struct {
	opts    Options
	out     io.Writer
	id      string
	ws      *engine.WorkingSet
	cache   *engine.ClosureCache
	version ir.Version
	history []string
	depth   int
}

// New creates a session with an empty working set at version 0.
// With a Recorder, the session is registered before New returns.
func New(ctx context.Context, opts Options) (*Session, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	size := opts.CacheSize
	if size <= 0 {
		size = engine.DefaultClosureCacheSize
	}
	cache, err := engine.NewClosureCache(size)
	if err != nil {
		return nil, err
	}

	s := &Session{
		opts:  opts,
		out:   out,
		ws:    engine.NewWorkingSet(),
		cache: cache,
	}

	if opts.Recorder != nil {
		s.id = opts.SessionID
		if s.id == "" {
			gen := opts.IDGenerator
			if gen == nil {
				gen = UUIDv7Generator{}
			}
			s.id = gen.Generate()
		}
		if err := opts.Recorder.CreateSession(ctx, s.id, opts.Label); err != nil {
			return nil, fmt.Errorf("register session: %w", err)
		}
	}

	return s, nil
}

// ID returns the recorded session ID, or "" without a Recorder.
func (s *Session) ID() string { return s.id }

// WorkingSet returns the live working set.
func (s *Session) WorkingSet() *engine.WorkingSet { return s.ws }

// Version returns the current version counter.
func (s *Session) Version() ir.Version { return s.version }

// History returns the recorded command lines.
func (s *Session) History() []string {
	return append([]string(nil), s.history...)
}

// Execute runs one command line. It returns false when the session should
// end (quit). Failures are printed and returned as *CommandError; any other
// error comes from the Recorder.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return true, nil
	}

	name, _ := splitCommand(line)
	if name != "save" && name != "quit" {
		s.history = append(s.history, line)
		if err := s.record(ctx, line); err != nil {
			return false, err
		}
	}

	cont, err := s.dispatch(ctx, line)

	if s.opts.Recorder != nil && name != "save" && name != "quit" {
		if recErr := s.opts.Recorder.WriteSnapshot(ctx, s.id, s.version, s.ws.All()); recErr != nil {
			return false, fmt.Errorf("record snapshot: %w", recErr)
		}
	}
	return cont, err
}

// Run executes lines from r until input ends or quit. Command failures
// are already printed, so Run continues past them unless Strict is set.
// Context cancellation is checked between commands.
func (s *Session) Run(ctx context.Context, r LineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		cont, err := s.Execute(ctx, line)
		if err != nil {
			var ce *CommandError
			if !errors.As(err, &ce) || s.opts.Strict {
				return err
			}
		}
		if !cont {
			return nil
		}
	}
}

func (s *Session) record(ctx context.Context, line string) error {
	if s.opts.Recorder == nil {
		return nil
	}
	if _, err := s.opts.Recorder.AppendCommand(ctx, s.id, line); err != nil {
		return fmt.Errorf("record command: %w", err)
	}
	return nil
}

// dispatch executes line without touching history.
func (s *Session) dispatch(ctx context.Context, line string) (bool, error) {
	name, args := splitCommand(line)

	cmd, ok := commands[name]
	if !ok || (cmd.needsArgs && args == "") || (!cmd.needsArgs && !cmd.optionalArgs && args != "") {
		s.println("Invalid command. Please try again.")
		return true, &CommandError{Code: ErrCodeUnknownCommand, Command: line, Message: "invalid command"}
	}

	slog.Debug("executing command", "command", name, "version", int64(s.version))
	return cmd.run(ctx, s, args)
}

// splitCommand splits line at its first run of whitespace into the command
// name and its trimmed arguments.
func splitCommand(line string) (name, args string) {
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// resolve makes a user-supplied path relative to BaseDir.
func (s *Session) resolve(path string) string {
	if s.opts.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.opts.BaseDir, path)
}

func (s *Session) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Session) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}
