package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todo-keeper/internal/model"
	"todo-keeper/internal/state"
	"todo-keeper/internal/theme"
)

type staticSource state.Snapshot

func (s staticSource) Snapshot() state.Snapshot { return state.Snapshot(s) }

func ptr(s string) *string { return &s }

func TestSummaryGroupsByCategory(t *testing.T) {
	src := staticSource{
		Categories: model.DefaultCategories(),
		Palette:    theme.Light,
		Tasks: []model.Task{
			{ID: "a", Text: "Ship <release>", CategoryID: ptr("2"), Notes: "tag & push"},
			{ID: "b", Text: "Buy milk", CategoryID: ptr("3")},
			{ID: "c", Text: "Stretch", CategoryID: ptr("99")},
			{ID: "d", Text: "Done already", Completed: true, CategoryID: ptr("2")},
			{ID: "e", Text: "Call mum"},
		},
	}
	out := NewReportService(src).Summary(time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "🗓 18.10.2026")
	assert.Contains(t, out, "<b>Open tasks</b> (4)")
	assert.Contains(t, out, "• Ship &lt;release&gt;")
	assert.Contains(t, out, "📝 tag &amp; push")
	assert.NotContains(t, out, "Done already")
	assert.Contains(t, out, "✅ Completed: 1 of 5")

	work := strings.Index(out, "<i>Work</i>")
	shopping := strings.Index(out, "<i>Shopping</i>")
	loose := strings.Index(out, "<i>Uncategorized</i>")
	assert.True(t, work >= 0 && shopping > work && loose > shopping, out)
	assert.True(t, strings.Index(out, "• Stretch") > loose)
	assert.True(t, strings.Index(out, "• Call mum") > loose)
}

func TestSummaryEmpty(t *testing.T) {
	out := NewReportService(staticSource{Categories: model.DefaultCategories()}).Summary(time.Now())

	assert.Contains(t, out, "(0)")
	assert.Contains(t, out, "nothing left to do")
	assert.Contains(t, out, "Completed: 0 of 0")
}
