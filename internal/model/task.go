package model

import "time"

// Task represents a single to-do item.
type Task struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Completed  bool      `json:"completed"`
	CategoryID *string   `json:"categoryId"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TaskInput carries caller-supplied fields for a new task.
type TaskInput struct {
	Text       string
	CategoryID *string
	Notes      string
}

// TaskPatch is a partial update. Nil fields keep the stored value.
// ClearCategory wins over CategoryID and resets the task to uncategorized.
type TaskPatch struct {
	Text          *string
	Completed     *bool
	CategoryID    *string
	ClearCategory bool
	Notes         *string
}

// Apply merges the patch into t field by field.
func (p TaskPatch) Apply(t *Task) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	switch {
	case p.ClearCategory:
		t.CategoryID = nil
	case p.CategoryID != nil:
		id := *p.CategoryID
		t.CategoryID = &id
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
}

// HasCategory reports whether the task references categoryID.
func (t Task) HasCategory(categoryID string) bool {
	return t.CategoryID != nil && *t.CategoryID == categoryID
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.CategoryID != nil {
		id := *t.CategoryID
		t.CategoryID = &id
	}
	return t
}
