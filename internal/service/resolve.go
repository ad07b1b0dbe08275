package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"todo-keeper/internal/model"
	"todo-keeper/internal/state"
)

// ErrAmbiguousRef is returned when an id prefix matches more than one item.
var ErrAmbiguousRef = errors.New("reference matches more than one item")

// ResolveTask finds a task by 1-based list position, exact id or unique id
// prefix, in that order.
func ResolveTask(tasks []model.Task, ref string) (model.Task, error) {
	idx, err := resolve(len(tasks), func(i int) string { return tasks[i].ID }, ref)
	if err != nil {
		if errors.Is(err, errNoMatch) {
			return model.Task{}, fmt.Errorf("%w: %q", state.ErrTaskNotFound, ref)
		}
		return model.Task{}, err
	}
	return tasks[idx], nil
}

// ResolveCategory finds a category by case-insensitive name, then as
// ResolveTask does.
func ResolveCategory(categories []model.Category, ref string) (model.Category, error) {
	for _, c := range categories {
		if strings.EqualFold(c.Name, strings.TrimSpace(ref)) {
			return c, nil
		}
	}
	idx, err := resolve(len(categories), func(i int) string { return categories[i].ID }, ref)
	if err != nil {
		if errors.Is(err, errNoMatch) {
			return model.Category{}, fmt.Errorf("%w: %q", state.ErrCategoryNotFound, ref)
		}
		return model.Category{}, err
	}
	return categories[idx], nil
}

var errNoMatch = errors.New("no match")

// resolve tries ref as a 1-based position, then an exact id, then a unique id
// prefix.
func resolve(n int, idAt func(int) string, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, errNoMatch
	}
	if pos, err := strconv.Atoi(ref); err == nil && pos >= 1 && pos <= n {
		return pos - 1, nil
	}
	for i := 0; i < n; i++ {
		if idAt(i) == ref {
			return i, nil
		}
	}
	found := -1
	for i := 0; i < n; i++ {
		if strings.HasPrefix(idAt(i), ref) {
			if found >= 0 {
				return -1, fmt.Errorf("%w: %q", ErrAmbiguousRef, ref)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, errNoMatch
	}
	return found, nil
}
