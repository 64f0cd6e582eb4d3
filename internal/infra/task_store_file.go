package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/voicetodo/internal/models"
)

// TasksKey is the single storage key holding the serialized collection.
const TasksKey = "tasks"

// FileTaskStore keeps a key/value JSON document on disk, with the whole task
// map under TasksKey. Other keys in the document are preserved.
type FileTaskStore struct {
	path string
}

func NewFileTaskStore(path string) *FileTaskStore {
	return &FileTaskStore{path: path}
}

func (s *FileTaskStore) Load(_ context.Context) (map[string]models.Task, error) {
	doc, err := s.readDoc()
	if err != nil {
		return nil, err
	}

	tasks := make(map[string]models.Task)
	raw, ok := doc[TasksKey]
	if !ok || string(raw) == "null" {
		return tasks, nil
	}
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TasksKey, err)
	}
	return tasks, nil
}

func (s *FileTaskStore) Save(_ context.Context, tasks map[string]models.Task) error {
	doc, err := s.readDoc()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	doc[TasksKey] = raw

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func (s *FileTaskStore) readDoc() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	return doc, nil
}
