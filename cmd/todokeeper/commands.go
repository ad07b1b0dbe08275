package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"todo-keeper/internal/bot"
	"todo-keeper/internal/model"
	"todo-keeper/internal/service"
	"todo-keeper/internal/view"
)

// ServeCmd runs the Telegram front-end until interrupted.
type ServeCmd struct{}

func (s *ServeCmd) Run(rc *runContext) error {
	cfg := rc.cfg
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	reportSvc := service.NewReportService(rc.state)
	telegramBot, err := bot.New(cfg.TelegramToken, rc.state, reportSvc, cfg.TelegramChatID, rc.log)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local, rc.log)
	sendReport := func() {
		jobCtx, cancel := context.WithTimeout(rc.ctx, 30*time.Second)
		defer cancel()
		if err := telegramBot.SendReport(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			rc.log.Error("report", "err", err)
		}
	}
	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval("report", cfg.ReportInterval, sendReport); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
	}
	if cfg.ReportAt != "" {
		if _, err := scheduler.ScheduleDaily("daily-report", cfg.ReportAt, sendReport); err != nil {
			return fmt.Errorf("schedule daily report: %w", err)
		}
	}
	if scheduler.Len() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	if cfg.MetricsAddr != "" {
		srv := metricsServer(rc)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				rc.log.Error("metrics server", "err", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		rc.log.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	rc.log.Info("todo keeper bot started", "jobs", scheduler.Len())
	if err := telegramBot.Start(rc.ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	rc.log.Info("shutdown complete")
	return nil
}

func metricsServer(rc *runContext) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rc.registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              rc.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type AddCmd struct {
	Text     []string `arg:"" help:"Task text"`
	Notes    string   `short:"n" help:"Free-form notes"`
	Category string   `short:"c" help:"Category name, position or id"`
}

func (a *AddCmd) Run(rc *runContext) error {
	in := model.TaskInput{Text: strings.Join(a.Text, " "), Notes: a.Notes}
	if a.Category != "" {
		cat, err := service.ResolveCategory(rc.state.Categories(), a.Category)
		if err != nil {
			return err
		}
		in.CategoryID = &cat.ID
	}
	task, err := rc.state.AddTask(rc.ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(rc.out, "Added task %d: %s\n", len(rc.state.Tasks()), task.Text)
	return nil
}

type ListCmd struct {
	All bool `short:"a" help:"Include completed tasks"`
}

func (l *ListCmd) Run(rc *runContext) error {
	fmt.Fprint(rc.out, view.Tasks(rc.state.Snapshot(), l.All))
	return nil
}

type DoneCmd struct {
	Ref string `arg:"" help:"Task position or id"`
}

func (d *DoneCmd) Run(rc *runContext) error {
	task, err := service.ResolveTask(rc.state.Tasks(), d.Ref)
	if err != nil {
		return err
	}
	task, err = rc.state.ToggleTask(rc.ctx, task.ID)
	if err != nil {
		return err
	}
	status := "reopened"
	if task.Completed {
		status = "done"
	}
	fmt.Fprintf(rc.out, "%s: %s\n", status, task.Text)
	return nil
}

type EditCmd struct {
	Ref        string `arg:"" help:"Task position or id"`
	Text       string `short:"t" help:"New task text"`
	Notes      string `short:"n" help:"New notes"`
	ClearNotes bool   `name:"clear-notes" help:"Remove the notes"`
	Category   string `short:"c" help:"Category name, position or id"`
	NoCategory bool   `name:"no-category" help:"Remove the category"`
}

func (e *EditCmd) Run(rc *runContext) error {
	task, err := service.ResolveTask(rc.state.Tasks(), e.Ref)
	if err != nil {
		return err
	}

	var patch model.TaskPatch
	if e.Text != "" {
		patch.Text = &e.Text
	}
	switch {
	case e.ClearNotes:
		empty := ""
		patch.Notes = &empty
	case e.Notes != "":
		patch.Notes = &e.Notes
	}
	switch {
	case e.NoCategory:
		patch.ClearCategory = true
	case e.Category != "":
		cat, err := service.ResolveCategory(rc.state.Categories(), e.Category)
		if err != nil {
			return err
		}
		patch.CategoryID = &cat.ID
	}
	if patch == (model.TaskPatch{}) {
		return errors.New("nothing to change: pass --text, --notes, --clear-notes, --category or --no-category")
	}

	updated, err := rc.state.UpdateTask(rc.ctx, task.ID, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(rc.out, "Updated: %s\n", updated.Text)
	return nil
}

type RmCmd struct {
	Ref string `arg:"" help:"Task position or id"`
}

func (r *RmCmd) Run(rc *runContext) error {
	task, err := service.ResolveTask(rc.state.Tasks(), r.Ref)
	if err != nil {
		return err
	}
	if err := rc.state.DeleteTask(rc.ctx, task.ID); err != nil {
		return err
	}
	fmt.Fprintf(rc.out, "Deleted: %s\n", task.Text)
	return nil
}

type ClearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

func (c *ClearCmd) Run(rc *runContext) error {
	if !c.Yes {
		fmt.Fprint(rc.out, "Delete all tasks? This cannot be undone. [y/N] ")
		scanner := bufio.NewScanner(rc.in)
		answer := ""
		if scanner.Scan() {
			answer = strings.ToLower(strings.TrimSpace(scanner.Text()))
		}
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(rc.out, "Cancelled.")
			return nil
		}
	}
	if err := rc.state.ClearAllTasks(rc.ctx); err != nil {
		return err
	}
	fmt.Fprintln(rc.out, "All tasks cleared.")
	return nil
}

type ThemeCmd struct {
	Toggle bool `short:"t" help:"Switch between light and dark mode"`
}

func (t *ThemeCmd) Run(rc *runContext) error {
	if t.Toggle {
		if _, err := rc.state.ToggleTheme(rc.ctx); err != nil {
			return err
		}
	}
	fmt.Fprint(rc.out, view.Theme(rc.state.Snapshot()))
	return nil
}

type CategoriesCmd struct {
	List CategoriesListCmd `cmd:"" default:"1" help:"List categories"`
	Add  CategoriesAddCmd  `cmd:"" help:"Add a category"`
	Edit CategoriesEditCmd `cmd:"" help:"Rename or recolour a category"`
	Rm   CategoriesRmCmd   `cmd:"" help:"Delete a category and untag its tasks"`
}

type CategoriesListCmd struct{}

func (c *CategoriesListCmd) Run(rc *runContext) error {
	fmt.Fprint(rc.out, view.Categories(rc.state.Snapshot()))
	return nil
}

type CategoriesAddCmd struct {
	Name  string `arg:"" help:"Category name"`
	Color string `short:"c" help:"Colour as #RGB or #RRGGBB (default #FF5733)"`
}

func (c *CategoriesAddCmd) Run(rc *runContext) error {
	cat, err := rc.state.AddCategory(rc.ctx, model.CategoryInput{Name: c.Name, Color: c.Color})
	if err != nil {
		return err
	}
	fmt.Fprintf(rc.out, "Added category %s (%s)\n", cat.Name, cat.Color)
	return nil
}

type CategoriesEditCmd struct {
	Ref   string `arg:"" help:"Category name, position or id"`
	Name  string `help:"New name"`
	Color string `short:"c" help:"New colour"`
}

func (c *CategoriesEditCmd) Run(rc *runContext) error {
	cat, err := service.ResolveCategory(rc.state.Categories(), c.Ref)
	if err != nil {
		return err
	}
	var patch model.CategoryPatch
	if c.Name != "" {
		patch.Name = &c.Name
	}
	if c.Color != "" {
		patch.Color = &c.Color
	}
	if patch.Name == nil && patch.Color == nil {
		return errors.New("nothing to change: pass --name or --color")
	}
	updated, err := rc.state.UpdateCategory(rc.ctx, cat.ID, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(rc.out, "Updated category %s (%s)\n", updated.Name, updated.Color)
	return nil
}

type CategoriesRmCmd struct {
	Ref string `arg:"" help:"Category name, position or id"`
}

func (c *CategoriesRmCmd) Run(rc *runContext) error {
	cat, err := service.ResolveCategory(rc.state.Categories(), c.Ref)
	if err != nil {
		return err
	}
	if err := rc.state.DeleteCategory(rc.ctx, cat.ID); err != nil {
		return err
	}
	fmt.Fprintf(rc.out, "Deleted category %s\n", cat.Name)
	return nil
}
