package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-keeper/internal/model"
	"todo-keeper/internal/state"
)

func TestResolveTask(t *testing.T) {
	tasks := []model.Task{
		{ID: "0192a1b2-aaaa", Text: "one"},
		{ID: "0192a1b2-bbbb", Text: "two"},
		{ID: "7", Text: "seven"},
	}

	got, err := ResolveTask(tasks, "2")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Text)

	got, err = ResolveTask(tasks, "7")
	require.NoError(t, err)
	assert.Equal(t, "seven", got.Text, "out-of-range number falls back to exact id")

	got, err = ResolveTask(tasks, "3")
	require.NoError(t, err)
	assert.Equal(t, "seven", got.Text)

	got, err = ResolveTask(tasks, "0192a1b2-bb")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Text)

	_, err = ResolveTask(tasks, "0192a1b2")
	assert.ErrorIs(t, err, ErrAmbiguousRef)

	_, err = ResolveTask(tasks, "9")
	assert.ErrorIs(t, err, state.ErrTaskNotFound)

	_, err = ResolveTask(tasks, "")
	assert.ErrorIs(t, err, state.ErrTaskNotFound)
}

func TestResolveCategory(t *testing.T) {
	cats := model.DefaultCategories()

	got, err := ResolveCategory(cats, "shopping")
	require.NoError(t, err)
	assert.Equal(t, "3", got.ID)

	got, err = ResolveCategory(cats, "5")
	require.NoError(t, err)
	assert.Equal(t, "Education", got.Name)

	_, err = ResolveCategory(cats, "Hobbies")
	assert.ErrorIs(t, err, state.ErrCategoryNotFound)
}

func TestResolveCategoryPositionBeatsNumericID(t *testing.T) {
	// Personal deleted: ids "2".."5" now sit at positions 1..4.
	cats := model.DefaultCategories()[1:]

	got, err := ResolveCategory(cats, "2")
	require.NoError(t, err)
	assert.Equal(t, "Shopping", got.Name)

	got, err = ResolveCategory(cats, "4")
	require.NoError(t, err)
	assert.Equal(t, "Education", got.Name)

	got, err = ResolveCategory(cats, "5")
	require.NoError(t, err)
	assert.Equal(t, "Education", got.Name, "id beyond the list length still resolves")
}
