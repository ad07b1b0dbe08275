// Package state holds the in-memory task, category and theme state and
// mediates all persistence to the key-value store.
//
// Every mutation persists the full updated collection and then advances the
// in-memory snapshot, even when the write fails. A returned error therefore
// means the durable copy may lag behind memory; nothing is retried or rolled
// back.
package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todo-keeper/internal/model"
	"todo-keeper/internal/theme"
)

// Store is the durable key-value store the container persists to.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

var (
	ErrEmptyText        = errors.New("task text cannot be empty")
	ErrEmptyName        = errors.New("category name cannot be empty")
	ErrInvalidColor     = errors.New("category color must be #RGB or #RRGGBB")
	ErrTaskNotFound     = errors.New("task not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicateID      = errors.New("generated id already in use")
)

// Container is the single source of truth for tasks, categories and the
// dark-mode flag during a session.
type Container struct {
	store Store
	log   *log.Logger
	now   func() time.Time
	newID func() string

	mu         sync.Mutex
	tasks      []model.Task
	categories []model.Category
	darkMode   bool
	loading    bool

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
	closed  bool
}

// Option configures a Container.
type Option func(*Container)

func WithLogger(l *log.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the time source used for createdAt and events.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides id generation for tasks and categories.
func WithIDGenerator(gen func() string) Option {
	return func(c *Container) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// New builds an empty container seeded with the default categories.
// Call Load to restore persisted state.
func New(store Store, opts ...Option) *Container {
	c := &Container{
		store:      store,
		log:        log.Default(),
		now:        time.Now,
		newID:      newUUID,
		tasks:      []model.Task{},
		categories: model.DefaultCategories(),
		loading:    true,
		subs:       make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Load restores theme, tasks and categories from the store. A missing key
// leaves the default in place. Unreadable or malformed values are logged,
// replaced by the default and reported in the joined error; the container is
// usable either way.
func (c *Container) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.loading = false }()

	var errs []error

	dark, _, err := loadKey(ctx, c.store, KeyTheme, themeSchema, false)
	if err != nil {
		c.log.Error("load theme preference", "err", err)
		errs = append(errs, err)
	}
	c.darkMode = dark

	tasks, _, err := loadKey(ctx, c.store, KeyTasks, tasksSchema, []model.Task{})
	if err == nil {
		if dup, ok := duplicateID(tasks, func(t model.Task) string { return t.ID }); ok {
			err = fmt.Errorf("%w: %s: duplicate id %q", ErrMalformed, KeyTasks, dup)
			tasks = []model.Task{}
		}
	}
	if err != nil {
		c.log.Error("load tasks", "err", err)
		errs = append(errs, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.tasks = tasks

	categories, _, err := loadKey(ctx, c.store, KeyCategories, categoriesSchema, model.DefaultCategories())
	if err == nil {
		if dup, ok := duplicateID(categories, func(cat model.Category) string { return cat.ID }); ok {
			err = fmt.Errorf("%w: %s: duplicate id %q", ErrMalformed, KeyCategories, dup)
			categories = model.DefaultCategories()
		}
	}
	if err != nil {
		c.log.Error("load categories", "err", err)
		errs = append(errs, err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	c.categories = categories

	for _, t := range c.tasks {
		if strings.TrimSpace(t.Text) == "" {
			c.log.Warn("stored task has empty text", "id", t.ID)
		}
	}
	for _, cat := range c.categories {
		if !theme.ValidColor(cat.Color) {
			c.log.Warn("stored category has invalid color", "id", cat.ID, "color", cat.Color)
		}
	}

	c.log.Debug("state loaded", "tasks", len(c.tasks), "categories", len(c.categories), "dark", c.darkMode)
	return errors.Join(errs...)
}

// Loading reports whether Load has not completed yet.
func (c *Container) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// AddTask appends a new incomplete task and persists the task list.
func (c *Container) AddTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.newID()
	if c.taskIndex(id) >= 0 {
		return model.Task{}, ErrDuplicateID
	}
	task := model.Task{
		ID:         id,
		Text:       text,
		CategoryID: in.CategoryID,
		Notes:      in.Notes,
		CreatedAt:  c.now().UTC().Truncate(time.Millisecond),
	}.Clone()

	next := append(slices.Clone(c.tasks), task)
	err := c.commitTasks(ctx, next)
	return task.Clone(), err
}

// UpdateTask merges patch into the task with the given id.
func (c *Container) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return model.Task{}, ErrEmptyText
		}
		patch.Text = &text
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateTaskLocked(ctx, id, patch)
}

// ToggleTask flips the completed flag of a task.
func (c *Container) ToggleTask(ctx context.Context, id string) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.taskIndex(id)
	if idx < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	done := !c.tasks[idx].Completed
	return c.updateTaskLocked(ctx, id, model.TaskPatch{Completed: &done})
}

func (c *Container) updateTaskLocked(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	idx := c.taskIndex(id)
	if idx < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	next := c.cloneTasks()
	patch.Apply(&next[idx])
	updated := next[idx].Clone()
	err := c.commitTasks(ctx, next)
	return updated, err
}

// DeleteTask removes the task with the given id.
func (c *Container) DeleteTask(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.taskIndex(id)
	if idx < 0 {
		return ErrTaskNotFound
	}
	next := slices.Delete(c.cloneTasks(), idx, idx+1)
	return c.commitTasks(ctx, next)
}

// ClearAllTasks empties the task list, removes the task key from the store
// and broadcasts EventTasksCleared.
func (c *Container) ClearAllTasks(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Remove(ctx, KeyTasks)
	c.tasks = []model.Task{}
	c.publish(Event{Kind: EventTasksCleared, At: c.now()})
	if err != nil {
		c.log.Error("clear tasks", "err", err)
		return err
	}
	c.log.Info("all tasks cleared")
	return nil
}

// AddCategory appends a new category and persists the category list.
func (c *Container) AddCategory(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, ErrEmptyName
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = model.DefaultCategoryColor
	}
	if !theme.ValidColor(color) {
		return model.Category{}, ErrInvalidColor
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.newID()
	if c.categoryIndex(id) >= 0 {
		return model.Category{}, ErrDuplicateID
	}
	category := model.Category{ID: id, Name: name, Color: color}
	next := append(slices.Clone(c.categories), category)
	err := c.commitCategories(ctx, next)
	return category, err
}

// UpdateCategory merges patch into the category with the given id.
func (c *Container) UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return model.Category{}, ErrEmptyName
		}
		patch.Name = &name
	}
	if patch.Color != nil {
		color := strings.TrimSpace(*patch.Color)
		if !theme.ValidColor(color) {
			return model.Category{}, ErrInvalidColor
		}
		patch.Color = &color
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.categoryIndex(id)
	if idx < 0 {
		return model.Category{}, ErrCategoryNotFound
	}
	next := slices.Clone(c.categories)
	patch.Apply(&next[idx])
	updated := next[idx]
	err := c.commitCategories(ctx, next)
	return updated, err
}

// DeleteCategory removes a category and clears it from every task that
// referenced it. Categories are written first, then tasks; both writes are
// attempted and their failures joined. If only the task write fails the store
// holds the new category list next to tasks that still carry the old id.
func (c *Container) DeleteCategory(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.categoryIndex(id)
	if idx < 0 {
		return ErrCategoryNotFound
	}
	categoriesErr := c.commitCategories(ctx, slices.Delete(slices.Clone(c.categories), idx, idx+1))

	tasks := c.cloneTasks()
	cleared := 0
	for i := range tasks {
		if tasks[i].HasCategory(id) {
			tasks[i].CategoryID = nil
			cleared++
		}
	}
	tasksErr := c.commitTasks(ctx, tasks)
	c.log.Debug("category deleted", "id", id, "tasks_uncategorized", cleared)

	return errors.Join(categoriesErr, tasksErr)
}

// ToggleTheme flips dark mode, persists it and returns the new value.
func (c *Container) ToggleTheme(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dark := !c.darkMode
	err := saveKey(ctx, c.store, KeyTheme, dark)
	c.darkMode = dark
	if err != nil {
		c.log.Error("save theme preference", "err", err)
	}
	return dark, err
}

func (c *Container) commitTasks(ctx context.Context, next []model.Task) error {
	err := saveKey(ctx, c.store, KeyTasks, next)
	c.tasks = next
	if err != nil {
		c.log.Error("save tasks", "err", err)
	}
	return err
}

func (c *Container) commitCategories(ctx context.Context, next []model.Category) error {
	err := saveKey(ctx, c.store, KeyCategories, next)
	c.categories = next
	if err != nil {
		c.log.Error("save categories", "err", err)
	}
	return err
}

func (c *Container) taskIndex(id string) int {
	return slices.IndexFunc(c.tasks, func(t model.Task) bool { return t.ID == id })
}

func (c *Container) categoryIndex(id string) int {
	return slices.IndexFunc(c.categories, func(cat model.Category) bool { return cat.ID == id })
}

func (c *Container) cloneTasks() []model.Task {
	out := make([]model.Task, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.Clone()
	}
	return out
}
