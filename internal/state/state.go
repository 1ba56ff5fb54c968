package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sokinpui/cwlpatch/internal/fs"
)

const (
	stateDirName  = ".cwlpatch"
	stateFileName = "state.cwlpatch"
	TrashDir      = "trash"
)

var (
	// ErrNothingToRevert is returned by Revert when the journal is empty.
	ErrNothingToRevert = errors.New("no patch to revert")
	// ErrHashMismatch is returned when the file changed after it was patched.
	ErrHashMismatch = errors.New("file changed since it was patched")
	// ErrJournalChanged is returned when another run edited the journal during a revert.
	ErrJournalChanged = errors.New("journal changed during revert")
)

// Entry records one patched file and where its original contents were saved.
type Entry struct {
	Timestamp   int64
	Path        string
	BackupPath  string
	ContentHash string // SHA256 of the file content right after patching
}

// Manager owns the backup journal in <baseDir>/.cwlpatch.
type Manager struct {
	statePath string
	history   []Entry
	StateDir  string
	// LockTimeout bounds waits for the journal and target locks. Zero tries once.
	LockTimeout time.Duration
	now         func() time.Time
}

// New creates the state directory under baseDir if needed and loads the journal.
func New(baseDir string) (*Manager, error) {
	stateDir := filepath.Join(baseDir, stateDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}
	m := &Manager{
		statePath:   filepath.Join(stateDir, stateFileName),
		StateDir:    stateDir,
		LockTimeout: fs.DefaultLockTimeout,
		now:         time.Now,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// History returns the journal, oldest first.
func (m *Manager) History() []Entry {
	return append([]Entry(nil), m.history...)
}

// The journal is a list of blank-line separated blocks, one per entry:
// timestamp, path, backup path, content hash.
func (m *Manager) load() error {
	m.history = nil
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) != 4 {
			return fmt.Errorf("invalid state file: expected 4 lines per entry, got %d", len(lines))
		}
		ts, err := strconv.ParseInt(lines[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid state file: could not parse timestamp from '%s': %w", lines[0], err)
		}
		m.history = append(m.history, Entry{
			Timestamp:   ts,
			Path:        lines[1],
			BackupPath:  lines[2],
			ContentHash: lines[3],
		})
	}
	return nil
}

func (m *Manager) save() error {
	blocks := make([]string, 0, len(m.history))
	for _, e := range m.history {
		blocks = append(blocks, strings.Join([]string{
			strconv.FormatInt(e.Timestamp, 10),
			e.Path,
			e.BackupPath,
			e.ContentHash,
		}, "\n"))
	}
	content := strings.Join(blocks, "\n\n")
	if content != "" {
		content += "\n"
	}
	if err := fs.WriteFileAtomic(m.statePath, []byte(content)); err != nil {
		return fmt.Errorf("failed to save state file: %w", err)
	}
	return nil
}

// withJournal runs fn holding the journal lock, on a freshly loaded history.
func (m *Manager) withJournal(ctx context.Context, fn func() error) error {
	return fs.WithLock(ctx, m.statePath, m.LockTimeout, func() error {
		if err := m.load(); err != nil {
			return err
		}
		return fn()
	})
}

// Backup copies original into the trash directory before the target is
// overwritten. The journal is not touched until Commit.
func (m *Manager) Backup(path string, original []byte) (string, error) {
	ts := m.now().UTC().UnixNano()
	backup := filepath.Join(m.StateDir, TrashDir, fmt.Sprintf("%d-%s", ts, filepath.Base(path)))
	if err := os.MkdirAll(filepath.Dir(backup), 0755); err != nil {
		return "", fmt.Errorf("could not create trash directory: %w", err)
	}
	if err := fs.WriteFileAtomic(backup, original); err != nil {
		return "", fmt.Errorf("could not write backup: %w", err)
	}
	return backup, nil
}

// Commit appends a journal entry for a backup whose patched contents are on disk.
func (m *Manager) Commit(ctx context.Context, path, backup string, patched []byte) error {
	return m.withJournal(ctx, func() error {
		m.history = append(m.history, Entry{
			Timestamp:   m.now().UTC().UnixNano(),
			Path:        path,
			BackupPath:  backup,
			ContentHash: fs.HashBytes(patched),
		})
		if err := m.save(); err != nil {
			m.history = m.history[:len(m.history)-1]
			return err
		}
		return nil
	})
}

// Discard removes a backup that was never committed.
func (m *Manager) Discard(backup string) {
	_ = os.Remove(backup)
}

// Revert restores the most recently patched file from its backup. It refuses
// if the file no longer matches what was written when it was patched. The
// target lock is taken before the journal lock, the same order as a patch run.
func (m *Manager) Revert(ctx context.Context) (Entry, error) {
	if err := m.load(); err != nil {
		return Entry{}, err
	}
	if len(m.history) == 0 {
		return Entry{}, ErrNothingToRevert
	}
	last := m.history[len(m.history)-1]

	err := fs.WithLock(ctx, last.Path, m.LockTimeout, func() error {
		return m.withJournal(ctx, func() error {
			if len(m.history) == 0 || m.history[len(m.history)-1] != last {
				return fmt.Errorf("%w: %s", ErrJournalChanged, last.Path)
			}
			return m.restore(last)
		})
	})
	if err != nil {
		return last, err
	}
	_ = os.Remove(last.BackupPath)
	return last, nil
}

func (m *Manager) restore(last Entry) error {
	hash, err := fs.GetFileSHA256(last.Path)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", last.Path, err)
	}
	if hash != last.ContentHash {
		return fmt.Errorf("%w: %s", ErrHashMismatch, last.Path)
	}

	original, err := os.ReadFile(last.BackupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if err := fs.WriteFileAtomic(last.Path, original); err != nil {
		return err
	}

	m.history = m.history[:len(m.history)-1]
	return m.save()
}
