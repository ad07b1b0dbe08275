package state

import (
	"slices"

	"todo-keeper/internal/model"
	"todo-keeper/internal/theme"
)

// Snapshot is a consistent read-only copy of the container state.
type Snapshot struct {
	Tasks      []model.Task
	Categories []model.Category
	DarkMode   bool
	Palette    theme.Palette
}

// CategoryOf resolves the task's category. Dangling ids count as uncategorized.
func (s Snapshot) CategoryOf(t model.Task) (model.Category, bool) {
	if t.CategoryID == nil {
		return model.Category{}, false
	}
	for _, c := range s.Categories {
		if c.ID == *t.CategoryID {
			return c, true
		}
	}
	return model.Category{}, false
}

// CategoryName returns the name of category id, or "" when no such category
// exists.
func (s Snapshot) CategoryName(id string) string {
	cat, ok := s.CategoryOf(model.Task{CategoryID: &id})
	if !ok {
		return ""
	}
	return cat.Name
}

// Snapshot copies tasks, categories and theme under one lock.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Tasks:      c.cloneTasks(),
		Categories: slices.Clone(c.categories),
		DarkMode:   c.darkMode,
		Palette:    theme.For(c.darkMode),
	}
}

func (c *Container) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cloneTasks()
}

func (c *Container) Categories() []model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.categories)
}

func (c *Container) Task(id string) (model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.taskIndex(id); idx >= 0 {
		return c.tasks[idx].Clone(), true
	}
	return model.Task{}, false
}

func (c *Container) Category(id string) (model.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.categoryIndex(id); idx >= 0 {
		return c.categories[idx], true
	}
	return model.Category{}, false
}

// CategoryName returns the name of category id, or "" for an unknown id.
func (c *Container) CategoryName(id string) string {
	cat, ok := c.Category(id)
	if !ok {
		return ""
	}
	return cat.Name
}

func (c *Container) DarkMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.darkMode
}

// Palette returns the palette matching the current theme.
func (c *Container) Palette() theme.Palette {
	return theme.For(c.DarkMode())
}
