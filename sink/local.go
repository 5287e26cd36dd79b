package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const DefaultLocalKey = "valentineResponses"

// Local keeps keyed lists of submissions in a JSON file, the way a browser
// keeps them in local storage.
type Local struct {
	Path string
	Key  string

	mu sync.Mutex
}

func NewLocal(path, key string) *Local {
	if key == "" {
		key = DefaultLocalKey
	}

	return &Local{Path: path, Key: key}
}

func (l *Local) read() (map[string][]Submission, error) {
	lists := map[string][]Submission{}

	data, err := os.ReadFile(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return lists, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return lists, nil
	}

	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("corrupt storage file %s: %w", l.Path, err)
	}

	return lists, nil
}

func (l *Local) write(lists map[string][]Submission) error {
	data, err := json.MarshalIndent(lists, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.Path), ".responses-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), l.Path)
}

// Submit reads the existing list, appends s and writes it back.
func (l *Local) Submit(ctx context.Context, s Submission) error {
	if err := ctx.Err(); err != nil {
		return &Error{Message: failedMessage, Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lists, err := l.read()
	if err != nil {
		return &Error{Message: failedMessage, Err: err}
	}

	lists[l.Key] = append(lists[l.Key], s)

	if err := l.write(lists); err != nil {
		return &Error{Message: failedMessage, Err: err}
	}

	return nil
}

// List returns the submissions stored under the configured key.
func (l *Local) List() ([]Submission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lists, err := l.read()
	if err != nil {
		return nil, err
	}

	return lists[l.Key], nil
}
