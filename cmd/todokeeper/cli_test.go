package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-keeper/internal/config"
	"todo-keeper/internal/repository"
)

type cliHarness struct {
	store *repository.MemoryKV
	out   bytes.Buffer
	stdin string
}

func newHarness() *cliHarness {
	return &cliHarness{store: repository.NewMemoryKV()}
}

// run parses args and executes the command against a fresh container over
// the shared store, the way separate CLI invocations would.
func (h *cliHarness) run(t *testing.T, args ...string) error {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("todokeeper"), kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	h.out.Reset()
	rc := newRunContext(testContext(t), config.Config{}, log.New(io.Discard), h.store, prometheus.NewRegistry())
	defer rc.state.Close()
	rc.out = &h.out
	rc.in = strings.NewReader(h.stdin)
	return kctx.Run(rc)
}

func TestCLIAddListDone(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run(t, "add", "Buy", "milk", "--notes", "two litres", "--category", "shopping"))
	assert.Equal(t, "Added task 1: Buy milk\n", h.out.String())

	require.NoError(t, h.run(t, "add", "Call", "mom"))
	require.NoError(t, h.run(t, "list"))
	listing := h.out.String()
	assert.Contains(t, listing, "Buy milk")
	assert.Contains(t, listing, "Shopping")
	assert.Contains(t, listing, "two litres")

	require.NoError(t, h.run(t, "done", "1"))
	assert.Equal(t, "done: Buy milk\n", h.out.String())

	require.NoError(t, h.run(t, "list"))
	assert.NotContains(t, h.out.String(), "Buy milk")
	require.NoError(t, h.run(t, "list", "--all"))
	assert.Contains(t, h.out.String(), "Buy milk")
}

func TestCLIEditAndRemove(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "add", "draft", "-c", "work"))

	require.NoError(t, h.run(t, "edit", "1", "--text", "final", "--no-category"))
	assert.Equal(t, "Updated: final\n", h.out.String())

	require.NoError(t, h.run(t, "list", "-a"))
	assert.Contains(t, h.out.String(), "final")
	assert.NotContains(t, h.out.String(), "Work")

	assert.Error(t, h.run(t, "edit", "1"))
	assert.Error(t, h.run(t, "edit", "7", "--text", "x"))

	require.NoError(t, h.run(t, "rm", "1"))
	assert.Equal(t, "Deleted: final\n", h.out.String())
	require.NoError(t, h.run(t, "list"))
	assert.Contains(t, h.out.String(), "No tasks yet")
}

func TestCLIClearAsksForConfirmation(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run(t, "add", "one"))

	h.stdin = "n\n"
	require.NoError(t, h.run(t, "clear"))
	assert.Contains(t, h.out.String(), "Cancelled.")
	_, ok, _ := h.store.Get(testContext(t), "@todo_items")
	assert.True(t, ok)

	h.stdin = "y\n"
	require.NoError(t, h.run(t, "clear"))
	assert.Contains(t, h.out.String(), "All tasks cleared.")
	_, ok, _ = h.store.Get(testContext(t), "@todo_items")
	assert.False(t, ok)
}

func TestCLIThemeToggle(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run(t, "theme"))
	assert.Contains(t, h.out.String(), "Theme: light")

	require.NoError(t, h.run(t, "theme", "--toggle"))
	assert.Contains(t, h.out.String(), "Theme: dark")
	assert.Contains(t, h.out.String(), "#121212")

	v, _, _ := h.store.Get(testContext(t), "@theme_preference")
	assert.Equal(t, "true", v)
}

func TestCLICategories(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run(t, "categories"))
	assert.Contains(t, h.out.String(), "Education")

	require.NoError(t, h.run(t, "categories", "add", "Garden", "--color", "#33FFB5"))
	assert.Equal(t, "Added category Garden (#33FFB5)\n", h.out.String())
	assert.Error(t, h.run(t, "categories", "add", "Bad", "--color", "green"))

	require.NoError(t, h.run(t, "add", "Plant tulips", "-c", "garden"))
	require.NoError(t, h.run(t, "categories", "edit", "garden", "--name", "Yard"))
	assert.Equal(t, "Updated category Yard (#33FFB5)\n", h.out.String())

	require.NoError(t, h.run(t, "categories", "rm", "yard"))
	require.NoError(t, h.run(t, "categories", "list"))
	assert.NotContains(t, h.out.String(), "Yard")

	raw, _, _ := h.store.Get(testContext(t), "@todo_items")
	assert.Contains(t, raw, `"categoryId":null`)
}

func TestCLIServeRequiresToken(t *testing.T) {
	h := newHarness()
	err := h.run(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")
}
