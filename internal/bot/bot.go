package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-keeper/internal/model"
	"todo-keeper/internal/service"
	"todo-keeper/internal/state"
)

// TaskState is the slice of the state container the bot drives.
type TaskState interface {
	Snapshot() state.Snapshot
	CategoryName(id string) string
	AddTask(ctx context.Context, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	ToggleTask(ctx context.Context, id string) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ClearAllTasks(ctx context.Context) error
	AddCategory(ctx context.Context, in model.CategoryInput) (model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ToggleTheme(ctx context.Context) (bool, error)
	Subscribe() (<-chan state.Event, func())
}

// telegramAPI is the subset of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type conversationStage int

const (
	stageText conversationStage = iota + 1
	stageNotes
	stageCategory
)

type conversationState struct {
	stage conversationStage
	input model.TaskInput
}

// Bot exposes the task state over Telegram.
type Bot struct {
	api       telegramAPI
	tasks     TaskState
	reportSvc *service.ReportService
	log       *log.Logger
	chatID    int64
	now       func() time.Time

	conversations map[int64]*conversationState
	mu            sync.Mutex
}

// New authorizes against the Bot API. chatID restricts the bot to one chat and
// receives scheduled reports; zero accepts any private chat.
func New(token string, tasks TaskState, reportSvc *service.ReportService, chatID int64, lg *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newWithAPI(api, tasks, reportSvc, chatID, lg)
	b.log.Info("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newWithAPI(api telegramAPI, tasks TaskState, reportSvc *service.ReportService, chatID int64, lg *log.Logger) *Bot {
	if lg == nil {
		lg = log.Default()
	}
	return &Bot{
		api:           api,
		tasks:         tasks,
		reportSvc:     reportSvc,
		log:           lg.WithPrefix("bot"),
		chatID:        chatID,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	events, unsubscribe := b.tasks.Subscribe()
	defer unsubscribe()
	go b.forwardEvents(ctx, events)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", "err", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", "err", err)
		}
	}
}

// forwardEvents posts a notice to the configured chat when tasks are cleared.
func (b *Bot) forwardEvents(ctx context.Context, events <-chan state.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.log.Debug("state event", "kind", ev.Kind)
			if ev.Kind == state.EventTasksCleared && b.chatID != 0 {
				if err := b.sendText(b.chatID, "🧹 All tasks have been cleared."); err != nil {
					b.log.Error("notify cleared", "err", err)
				}
			}
		}
	}
}

// SendReport pushes the summary to the configured chat.
func (b *Bot) SendReport(ctx context.Context) error {
	if b.chatID == 0 {
		return fmt.Errorf("no report chat configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.sendText(b.chatID, b.reportSvc.Summary(b.now()))
}

func (b *Bot) allowed(chatID int64) bool {
	return b.chatID == 0 || b.chatID == chatID
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "err", err)
	}
}

func (b *Bot) setConversation(userID int64, st *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = st
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
