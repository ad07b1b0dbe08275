package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-keeper/internal/model"
	"todo-keeper/internal/service"
	"todo-keeper/internal/state"
	"todo-keeper/internal/theme"
)

const (
	cbTogglePrefix    = "toggle:"
	cbDeletePrefix    = "delete:"
	cbDelCatPrefix    = "delcat:"
	cbClearConfirm    = "clear:yes"
	cbCancel          = "cancel:"
	noCategoryLabel   = "No category"
	menuLabelNewTask  = "➕ New task"
	menuLabelTasks    = "📋 Tasks"
	menuLabelCategory = "📂 Categories"
	menuLabelHelp     = "ℹ️ Help"
	btnSkip           = "⏭️ Skip"
	btnCancelDialog   = "⏪ Cancel"
)

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /newtask — add a task step by step\n" +
	"• /add &lt;text&gt; — add a task in one go\n" +
	"• /tasks [all] — open tasks with toggle and delete buttons\n" +
	"• /done &lt;n&gt; — toggle completion of task n\n" +
	"• /rename &lt;n&gt; &lt;text&gt; — change the task text\n" +
	"• /note &lt;n&gt; &lt;text&gt; — set notes (empty clears)\n" +
	"• /setcategory &lt;n&gt; &lt;category|none&gt; — tag a task\n" +
	"• /delete &lt;n&gt; — delete a task\n" +
	"• /categories — list categories\n" +
	"• /newcategory &lt;name&gt; [#color] — add a category\n" +
	"• /deletecategory &lt;category&gt; — delete a category\n" +
	"• /theme — switch light/dark mode\n" +
	"• /clear — delete all tasks\n" +
	"• /report — summary of open tasks\n" +
	"• /cancel — abort the current dialog"

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.allowed(msg.Chat.ID) {
		b.log.Warn("message from unknown chat ignored", "chat", msg.Chat.ID)
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Dialog cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Info("command", "chat", msg.Chat.ID, "cmd", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if conv := b.getConversation(msg.From.ID); conv != nil {
		b.log.Debug("conversation step", "stage", conv.stage, "user", msg.From.ID)
		return b.handleConversation(ctx, msg, conv)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		name := strings.TrimSpace(msg.From.FirstName)
		if name == "" {
			name = "there"
		}
		return b.sendText(chatID, fmt.Sprintf("👋 Hi, %s!\n<b>I keep your to-do list.</b>\n\n%s", escape(name), helpText))
	case "help":
		return b.sendText(chatID, helpText)
	case "newtask":
		b.setConversation(msg.From.ID, &conversationState{stage: stageText})
		return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what needs doing?", cancelKeyboard())
	case "add":
		return b.addTask(ctx, chatID, model.TaskInput{Text: args})
	case "tasks":
		return b.sendTaskList(chatID, strings.EqualFold(args, "all"))
	case "done":
		return b.withTask(chatID, args, "/done 2", func(task model.Task) error {
			return b.toggleAndReply(ctx, chatID, task.ID)
		})
	case "delete":
		return b.withTask(chatID, args, "/delete 2", func(task model.Task) error {
			return b.deleteAndReply(ctx, chatID, task.ID)
		})
	case "rename":
		ref, text := splitFirst(args)
		return b.withTask(chatID, ref, "/rename 2 Buy oat milk", func(task model.Task) error {
			updated, err := b.tasks.UpdateTask(ctx, task.ID, model.TaskPatch{Text: &text})
			if err != nil {
				return b.replyError(chatID, "Could not rename the task", err)
			}
			return b.sendText(chatID, fmt.Sprintf("✏️ Renamed to «%s».", escape(updated.Text)))
		})
	case "note":
		ref, notes := splitFirst(args)
		return b.withTask(chatID, ref, "/note 2 two litres", func(task model.Task) error {
			if _, err := b.tasks.UpdateTask(ctx, task.ID, model.TaskPatch{Notes: &notes}); err != nil {
				return b.replyError(chatID, "Could not save notes", err)
			}
			if notes == "" {
				return b.sendText(chatID, "📝 Notes cleared.")
			}
			return b.sendText(chatID, "📝 Notes saved.")
		})
	case "setcategory":
		ref, catRef := splitFirst(args)
		return b.withTask(chatID, ref, "/setcategory 2 Work", func(task model.Task) error {
			return b.setCategory(ctx, chatID, task, catRef)
		})
	case "categories":
		return b.sendCategories(chatID)
	case "newcategory":
		return b.addCategory(ctx, chatID, args)
	case "deletecategory":
		return b.askDeleteCategory(chatID, args)
	case "theme":
		dark, err := b.tasks.ToggleTheme(ctx)
		if err != nil {
			return b.replyError(chatID, "Theme switched but not saved", err)
		}
		mode := "☀️ Light mode on."
		if dark {
			mode = "🌙 Dark mode on."
		}
		return b.sendText(chatID, mode)
	case "clear":
		markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Clear all", cbClearConfirm),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Cancel", cbCancel),
		))
		return b.sendWithReplyMarkup(chatID, "Delete <b>all</b> tasks? This cannot be undone.", markup)
	case "report":
		return b.sendText(chatID, b.reportSvc.Summary(b.now()))
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "⏪ Dialog cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, conv *conversationState) error {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch conv.stage {
	case stageText:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "Task text cannot be empty. What needs doing?", cancelKeyboard())
		}
		conv.input.Text = text
		conv.stage = stageNotes
		return b.sendWithReplyMarkup(chatID, "📝 Any notes? (or «Skip»)", skipKeyboard())
	case stageNotes:
		if !isSkipInput(text) {
			conv.input.Notes = text
		}
		conv.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Pick a category (or «Skip»).", categoryKeyboard(b.tasks.Snapshot().Categories))
	case stageCategory:
		if !isSkipInput(text) && text != noCategoryLabel {
			cat, err := service.ResolveCategory(b.tasks.Snapshot().Categories, text)
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "Unknown category, pick one from the keyboard.", categoryKeyboard(b.tasks.Snapshot().Categories))
			}
			conv.input.CategoryID = &cat.ID
		}
		b.clearConversation(msg.From.ID)
		return b.addTask(ctx, chatID, conv.input)
	default:
		b.clearConversation(msg.From.ID)
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		b.setConversation(msg.From.ID, &conversationState{stage: stageText})
		return true, b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what needs doing?", cancelKeyboard())
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(msg.Chat.ID, false)
	case strings.ToLower(menuLabelCategory):
		return true, b.sendCategories(msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if !cb.Message.Chat.IsPrivate() {
		return nil
	}
	b.ack(cb)
	chatID := cb.Message.Chat.ID
	if !b.allowed(chatID) {
		return nil
	}
	b.log.Info("callback", "chat", chatID, "data", cb.Data)

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		return b.toggleAndReply(ctx, chatID, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.deleteAndReply(ctx, chatID, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbDelCatPrefix):
		id := strings.TrimPrefix(data, cbDelCatPrefix)
		if err := b.tasks.DeleteCategory(ctx, id); err != nil {
			return b.replyError(chatID, "Could not delete the category", err)
		}
		return b.sendText(chatID, "🗑 Category deleted. Its tasks are now uncategorized.")
	case data == cbClearConfirm:
		if err := b.tasks.ClearAllTasks(ctx); err != nil {
			return b.replyError(chatID, "Failed to clear tasks", err)
		}
		if chatID != b.chatID {
			return b.sendText(chatID, "🧹 All tasks have been cleared.")
		}
		return nil
	default:
		return nil
	}
}

func (b *Bot) addTask(ctx context.Context, chatID int64, in model.TaskInput) error {
	task, err := b.tasks.AddTask(ctx, in)
	if err != nil {
		if errors.Is(err, state.ErrEmptyText) {
			return b.sendText(chatID, "Task text cannot be empty: /add Buy milk")
		}
		return b.replyError(chatID, "Task added but not saved", err)
	}
	b.log.Info("task created", "id", task.ID)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task added</b>\n")
	summary.WriteString(fmt.Sprintf("• %s\n", escape(task.Text)))
	if task.Notes != "" {
		summary.WriteString(fmt.Sprintf("• <b>Notes:</b> %s\n", escape(task.Notes)))
	}
	if task.CategoryID != nil {
		if name := b.tasks.CategoryName(*task.CategoryID); name != "" {
			summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", escape(name)))
		}
	}
	return b.sendText(chatID, strings.TrimSpace(summary.String()))
}

func (b *Bot) toggleAndReply(ctx context.Context, chatID int64, id string) error {
	task, err := b.tasks.ToggleTask(ctx, id)
	if err != nil {
		return b.replyError(chatID, "Could not update the task", err)
	}
	if task.Completed {
		return b.sendText(chatID, fmt.Sprintf("✅ «%s» done.", escape(task.Text)))
	}
	return b.sendText(chatID, fmt.Sprintf("↩️ «%s» reopened.", escape(task.Text)))
}

func (b *Bot) deleteAndReply(ctx context.Context, chatID int64, id string) error {
	task, ok := findTask(b.tasks.Snapshot().Tasks, id)
	if err := b.tasks.DeleteTask(ctx, id); err != nil {
		return b.replyError(chatID, "Could not delete the task", err)
	}
	if !ok {
		return b.sendText(chatID, "🗑 Task deleted.")
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(task.Text)))
}

func (b *Bot) setCategory(ctx context.Context, chatID int64, task model.Task, catRef string) error {
	patch := model.TaskPatch{ClearCategory: true}
	label := noCategoryLabel
	if catRef != "" && !strings.EqualFold(catRef, "none") {
		cat, err := service.ResolveCategory(b.tasks.Snapshot().Categories, catRef)
		if err != nil {
			return b.replyError(chatID, "Unknown category", err)
		}
		patch = model.TaskPatch{CategoryID: &cat.ID}
		label = cat.Name
	}
	if _, err := b.tasks.UpdateTask(ctx, task.ID, patch); err != nil {
		return b.replyError(chatID, "Could not tag the task", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🏷 «%s» → %s", escape(task.Text), escape(label)))
}

func (b *Bot) addCategory(ctx context.Context, chatID int64, args string) error {
	name, color := args, ""
	if i := strings.LastIndex(args, " #"); i >= 0 {
		name, color = strings.TrimSpace(args[:i]), strings.TrimSpace(args[i+1:])
	}
	cat, err := b.tasks.AddCategory(ctx, model.CategoryInput{Name: name, Color: color})
	if err != nil {
		switch {
		case errors.Is(err, state.ErrEmptyName):
			return b.sendText(chatID, "Category name cannot be empty: /newcategory Garden #33FFB5")
		case errors.Is(err, state.ErrInvalidColor):
			return b.sendText(chatID, fmt.Sprintf("Colour must look like #RRGGBB. Try one of: %s", strings.Join(theme.Swatches, " ")))
		}
		return b.replyError(chatID, "Category added but not saved", err)
	}
	return b.sendText(chatID, fmt.Sprintf("📂 Category «%s» (%s) added.", escape(cat.Name), cat.Color))
}

func (b *Bot) askDeleteCategory(chatID int64, ref string) error {
	if ref == "" {
		return b.sendText(chatID, "Which category? /deletecategory Work")
	}
	cat, err := service.ResolveCategory(b.tasks.Snapshot().Categories, ref)
	if err != nil {
		return b.replyError(chatID, "Unknown category", err)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", cbDelCatPrefix+cat.ID),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Cancel", cbCancel),
	))
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Delete category «%s»? Tasks keep existing without it.", escape(cat.Name)), markup)
}

func (b *Bot) sendTaskList(chatID int64, showCompleted bool) error {
	snap := b.tasks.Snapshot()

	var builder strings.Builder
	builder.WriteString("📋 <b>Tasks</b>\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, task := range snap.Tasks {
		if task.Completed && !showCompleted {
			continue
		}
		box := "⬜"
		if task.Completed {
			box = "✅"
		}
		builder.WriteString(fmt.Sprintf("%d. %s %s", i+1, box, escape(task.Text)))
		if cat, ok := snap.CategoryOf(task); ok {
			builder.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(cat.Name)))
		}
		if task.Notes != "" {
			builder.WriteString(fmt.Sprintf("\n   📝 %s", escape(task.Notes)))
		}
		builder.WriteByte('\n')
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d · %s", box, i+1, shortTitle(task.Text, 24)), cbTogglePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		))
	}

	if len(buttons) == 0 {
		return b.sendText(chatID, "No open tasks. Add one with /newtask.")
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendCategories(chatID int64) error {
	snap := b.tasks.Snapshot()
	if len(snap.Categories) == 0 {
		return b.sendText(chatID, "No categories yet. Add one with /newcategory.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for i, cat := range snap.Categories {
		builder.WriteString(fmt.Sprintf("%d. %s <code>%s</code>\n", i+1, escape(cat.Name), cat.Color))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) withTask(chatID int64, ref, example string, fn func(model.Task) error) error {
	if ref == "" {
		return b.sendText(chatID, fmt.Sprintf("Which task? For example: %s", example))
	}
	task, err := service.ResolveTask(b.tasks.Snapshot().Tasks, ref)
	if err != nil {
		return b.replyError(chatID, "Task not found", err)
	}
	return fn(task)
}

func (b *Bot) replyError(chatID int64, prefix string, err error) error {
	b.log.Warn(prefix, "err", err)
	return b.sendText(chatID, fmt.Sprintf("⚠️ %s: %s", prefix, escape(err.Error())))
}

func findTask(tasks []model.Task, id string) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// splitFirst splits "ref rest of text" at the first run of whitespace.
func splitFirst(args string) (string, string) {
	args = strings.TrimSpace(args)
	i := strings.IndexFunc(args, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
	if i < 0 {
		return args, ""
	}
	return args[:i], strings.TrimSpace(args[i:])
}
