package chat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for names that are not stored replies.
var ErrInvalidName = errors.New("invalid response name")

const namePrefix = "response_"

// Store keeps synthesized replies as files in one directory.
type Store struct {
	dir string
}

// NewStore creates dir if needed and returns a store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create response dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Extension maps an output format to a file extension.
func Extension(format string) string {
	switch format {
	case "raw":
		return "pcm"
	case "mulaw":
		return "ulaw"
	default:
		return format
	}
}

// Name returns the reply file name for a conversation of historyLen turns.
func Name(historyLen int, format string) string {
	return fmt.Sprintf("%s%d.%s", namePrefix, historyLen, Extension(format))
}

// Save writes data as the reply for historyLen and returns its path.
// An existing reply with the same name is replaced.
func (s *Store) Save(historyLen int, format string, data []byte) (string, error) {
	path := filepath.Join(s.dir, Name(historyLen, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save response: %w", err)
	}
	return path, nil
}

// Path returns the on-disk path of a stored reply. Only plain names
// produced by Name are accepted.
func (s *Store) Path(name string) (string, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, namePrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
