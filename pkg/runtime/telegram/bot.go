package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/de-tools/stats-report/pkg/services/report"
	"github.com/rs/zerolog"
)

const (
	CommandStart      = "/start"
	CallbackGetReport = "get_report"

	textAccessDenied   = "⛔ У вас нет доступа к этому боту."
	textCallbackDenied = "У вас нет доступа."
	textWelcome        = "Добро пожаловать, %s!\nЯ бот для генерации отчетов из Яндекс.Статистики.\nНажмите кнопку ниже, чтобы получить свежий отчет."
	textGetReport      = "📊 Получить отчет"
	textGenerating     = "⏳ Формирую отчет, это займет несколько секунд..."
	textReady          = "✅ Ваш отчет по статистике готов!"
	textNoData         = "За выбранный период нет данных."
	textFailed         = "При формировании отчета произошла ошибка:\n%s"

	DefaultPollTimeout = 30 * time.Second
	defaultRetryDelay  = 3 * time.Second
)

// API is the part of the Bot API the bot talks to.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
	SendDocument(ctx context.Context, chatID int64, path, caption string) (*Message, error)
}

type Authorizer interface {
	IsAuthorized(userID int64) bool
}

type ReportGenerator interface {
	GenerateReport(ctx context.Context, requestedBy string) (*report.Result, error)
}

type Options struct {
	API         API
	Gate        Authorizer
	Generator   ReportGenerator
	PollTimeout time.Duration
	RetryDelay  time.Duration
}

type Bot struct {
	api         API
	gate        Authorizer
	generator   ReportGenerator
	pollTimeout time.Duration
	retryDelay  time.Duration
}

func NewBot(opts Options) (*Bot, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("bot api client is required")
	}
	if opts.Gate == nil {
		return nil, fmt.Errorf("access gate is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("report generator is required")
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &Bot{
		api:         opts.API,
		gate:        opts.Gate,
		generator:   opts.Generator,
		pollTimeout: opts.PollTimeout,
		retryDelay:  opts.RetryDelay,
	}, nil
}

func MainMenuKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: textGetReport, CallbackData: CallbackGetReport}},
		},
	}
}

// Run polls for updates until ctx is cancelled. Every update is handled in
// its own goroutine; Run waits for them before returning.
func (b *Bot) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("bot started polling")

	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		if ctx.Err() != nil {
			logger.Info().Msg("bot stopped polling")
			return nil
		}

		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("failed to get updates")
			select {
			case <-ctx.Done():
			case <-time.After(b.retryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			wg.Add(1)
			go func(u Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(u)
		}
	}
}

// HandleUpdate dispatches a single update. Unknown updates are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	logger := zerolog.Ctx(ctx).With().Int64("update_id", u.UpdateID).Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("update handler panicked")
		}
	}()

	switch {
	case u.Message != nil && command(u.Message.Text) == CommandStart:
		b.handleStart(ctx, u.Message)
	case u.CallbackQuery != nil && u.CallbackQuery.Data == CallbackGetReport:
		b.handleGetReport(ctx, u.CallbackQuery)
	default:
		logger.Debug().Msg("ignoring update")
	}
}

// command returns the bot command in text without arguments or @botname.
func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd
}

func (b *Bot) handleStart(ctx context.Context, msg *Message) {
	logger := zerolog.Ctx(ctx)
	if msg.From == nil || !b.gate.IsAuthorized(msg.From.ID) {
		logger.Warn().Int64("chat_id", msg.Chat.ID).Msg("access denied")
		if _, err := b.api.SendMessage(ctx, msg.Chat.ID, textAccessDenied, nil); err != nil {
			logger.Error().Err(err).Msg("failed to send message")
		}
		return
	}

	text := fmt.Sprintf(textWelcome, msg.From.FirstName)
	if _, err := b.api.SendMessage(ctx, msg.Chat.ID, text, MainMenuKeyboard()); err != nil {
		logger.Error().Err(err).Msg("failed to send message")
	}
}

func (b *Bot) handleGetReport(ctx context.Context, cq *CallbackQuery) {
	logger := zerolog.Ctx(ctx).With().Int64("user_id", cq.From.ID).Logger()
	ctx = logger.WithContext(ctx)

	if !b.gate.IsAuthorized(cq.From.ID) {
		logger.Warn().Msg("access denied")
		if err := b.api.AnswerCallbackQuery(ctx, cq.ID, textCallbackDenied, true); err != nil {
			logger.Error().Err(err).Msg("failed to answer callback")
		}
		return
	}
	defer func() {
		if err := b.api.AnswerCallbackQuery(ctx, cq.ID, "", false); err != nil {
			logger.Error().Err(err).Msg("failed to answer callback")
		}
	}()

	if cq.Message == nil {
		logger.Warn().Msg("callback without message")
		return
	}
	chatID, messageID := cq.Message.Chat.ID, cq.Message.MessageID

	edit := func(text string) {
		if err := b.api.EditMessageText(ctx, chatID, messageID, text); err != nil {
			logger.Error().Err(err).Msg("failed to edit message")
		}
	}

	edit(textGenerating)

	res, err := b.generator.GenerateReport(ctx, strconv.FormatInt(cq.From.ID, 10))
	switch {
	case errors.Is(err, report.ErrNoData):
		edit(textNoData)
		return
	case err != nil:
		logger.Error().Err(err).Msg("failed to generate report")
		edit(fmt.Sprintf(textFailed, err))
		return
	}

	if _, err := b.api.SendDocument(ctx, chatID, res.Path, textReady); err != nil {
		logger.Error().Err(err).Str("file", res.Path).Msg("failed to send report")
		edit(fmt.Sprintf(textFailed, err))
		return
	}
	if err := b.api.DeleteMessage(ctx, chatID, messageID); err != nil {
		logger.Error().Err(err).Msg("failed to delete progress message")
	}
	if err := os.Remove(res.Path); err != nil {
		logger.Error().Err(err).Str("file", res.Path).Msg("failed to remove report")
		return
	}
	logger.Info().Str("file", res.Path).Msg("report sent and removed")
}
