package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"todo-keeper/internal/model"
	"todo-keeper/internal/state"
)

// SnapshotSource provides consistent reads of the task state.
type SnapshotSource interface {
	Snapshot() state.Snapshot
}

// ReportService builds human-readable summaries for scheduled notifications.
type ReportService struct {
	src SnapshotSource
}

func NewReportService(src SnapshotSource) *ReportService {
	return &ReportService{src: src}
}

type taskGroup struct {
	title string
	tasks []model.Task
}

// Summary renders open tasks grouped by category plus a completion count, as
// Telegram HTML.
func (s *ReportService) Summary(now time.Time) string {
	snap := s.src.Snapshot()

	groups := groupOpenTasks(snap)
	open, completed := 0, 0
	for _, t := range snap.Tasks {
		if t.Completed {
			completed++
		} else {
			open++
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily summary</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	builder.WriteString(fmt.Sprintf("🔥 <b>Open tasks</b> (%d)\n", open))
	if open == 0 {
		builder.WriteString("— nothing left to do\n")
	}
	for _, g := range groups {
		builder.WriteString(fmt.Sprintf("\n<i>%s</i>\n", html.EscapeString(g.title)))
		for _, task := range g.tasks {
			builder.WriteString(formatTask(task))
		}
	}

	builder.WriteString(fmt.Sprintf("\n✅ Completed: %d of %d", completed, len(snap.Tasks)))
	return strings.TrimSpace(builder.String())
}

// groupOpenTasks orders groups like the category list, uncategorized last.
// Tasks pointing at a deleted category land in the uncategorized group.
func groupOpenTasks(snap state.Snapshot) []taskGroup {
	byCategory := make(map[string][]model.Task)
	var loose []model.Task
	for _, task := range snap.Tasks {
		if task.Completed {
			continue
		}
		if cat, ok := snap.CategoryOf(task); ok {
			byCategory[cat.ID] = append(byCategory[cat.ID], task)
			continue
		}
		loose = append(loose, task)
	}

	var groups []taskGroup
	for _, cat := range snap.Categories {
		if tasks := byCategory[cat.ID]; len(tasks) > 0 {
			groups = append(groups, taskGroup{title: strings.TrimSpace(cat.Name), tasks: tasks})
		}
	}
	if len(loose) > 0 {
		groups = append(groups, taskGroup{title: "Uncategorized", tasks: loose})
	}
	return groups
}

func formatTask(task model.Task) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• %s", html.EscapeString(strings.TrimSpace(task.Text))))
	if notes := strings.TrimSpace(task.Notes); notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(notes)))
	}
	sb.WriteByte('\n')
	return sb.String()
}
