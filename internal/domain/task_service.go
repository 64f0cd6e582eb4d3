package domain

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/Vovarama1992/voicetodo/internal/ports"
)

const DateLayout = "2006-01-02"

var (
	ErrEmptyTask    = errors.New("task text is empty")
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidDate  = errors.New("invalid task date")
)

// TaskService keeps the task collection in memory and writes the whole
// collection through the store on every mutation. The in-memory copy only
// changes after the store accepted the write.
type TaskService struct {
	store ports.TaskStore
	now   func() time.Time

	mu    sync.RWMutex
	tasks map[string]models.Task
}

func NewTaskService(store ports.TaskStore, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		store: store,
		now:   now,
		tasks: make(map[string]models.Task),
	}
}

func (s *TaskService) Load(ctx context.Context) error {
	tasks, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if tasks == nil {
		tasks = make(map[string]models.Task)
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	return nil
}

func (s *TaskService) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Put inserts or replaces the task under its id.
func (s *TaskService) Put(ctx context.Context, task models.Task) error {
	if task.ID == "" {
		return fmt.Errorf("put task: empty id")
	}
	return s.mutate(ctx, func(m map[string]models.Task) error {
		m[task.ID] = task
		return nil
	})
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(m map[string]models.Task) error {
		if _, ok := m[id]; !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		delete(m, id)
		return nil
	})
}

// Add creates a task for date with the creation time in milliseconds as id.
func (s *TaskService) Add(ctx context.Context, text, date string) (models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Task{}, ErrEmptyTask
	}
	if date == "" {
		date = s.now().Format(DateLayout)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return models.Task{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	var task models.Task
	err := s.mutate(ctx, func(m map[string]models.Task) error {
		ms := s.now().UnixMilli()
		id := strconv.FormatInt(ms, 10)
		for _, taken := m[id]; taken; _, taken = m[id] {
			ms++
			id = strconv.FormatInt(ms, 10)
		}
		task = models.Task{ID: id, Text: text, Date: date}
		m[id] = task
		return nil
	})
	return task, err
}

func (s *TaskService) Edit(ctx context.Context, id, text string) (models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Task{}, ErrEmptyTask
	}
	return s.update(ctx, id, func(t *models.Task) { t.Text = text })
}

func (s *TaskService) Toggle(ctx context.Context, id string) (models.Task, error) {
	return s.update(ctx, id, func(t *models.Task) { t.Completed = !t.Completed })
}

// List returns the tasks dated in year whose text contains query
// (case-insensitive), newest date first. Ties keep id order.
func (s *TaskService) List(year int, query string) []models.Task {
	query = strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		d, err := time.Parse(DateLayout, t.Date)
		if err != nil || d.Year() != year {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Text), query) {
			continue
		}
		out = append(out, t)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.Task) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// MarkedDates marks every date that has a task, plus the selected date.
func (s *TaskService) MarkedDates(selected string) map[string]models.CalendarMark {
	s.mu.RLock()
	marks := make(map[string]models.CalendarMark, len(s.tasks)+1)
	for _, t := range s.tasks {
		marks[t.Date] = models.CalendarMark{Marked: true}
	}
	s.mu.RUnlock()

	if selected != "" {
		m := marks[selected]
		m.Selected = true
		marks[selected] = m
	}
	return marks
}

func (s *TaskService) update(ctx context.Context, id string, fn func(*models.Task)) (models.Task, error) {
	var task models.Task
	err := s.mutate(ctx, func(m map[string]models.Task) error {
		t, ok := m[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		fn(&t)
		m[id] = t
		task = t
		return nil
	})
	return task, err
}

func (s *TaskService) mutate(ctx context.Context, fn func(map[string]models.Task) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.tasks)
	if next == nil {
		next = make(map[string]models.Task)
	}
	if err := fn(next); err != nil {
		return err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	s.tasks = next
	return nil
}
