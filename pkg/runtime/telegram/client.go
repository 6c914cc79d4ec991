package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 90 * time.Second
)

var allowedUpdates = []string{"message", "callback_query"}

// Client adapts tgbotapi.BotAPI to the API the bot needs.
type Client struct {
	api     *tgbotapi.BotAPI
	token   string
	baseURL string
	http    *http.Client
}

type ClientOption func(c *Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the transport. Its timeout has to outlast a long poll.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

// NewClient checks the token with getMe before returning.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is empty")
	}
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, c.baseURL+"/bot%s/%s", c.http)
	if err != nil {
		return nil, c.wrap("getMe", err)
	}
	c.api = api
	return c, nil
}

// Username is the bot account name reported by getMe.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// GetUpdates long-polls for updates starting at offset. The underlying
// library has no context support, so cancellation is only checked before
// the request is sent.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Timeout = int(timeout.Seconds())
	cfg.AllowedUpdates = allowedUpdates

	raw, err := c.api.GetUpdates(cfg)
	if err != nil {
		return nil, c.wrap("getUpdates", err)
	}
	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, fromUpdate(u))
	}
	return updates, nil
}

func (c *Client) SendMessage(
	ctx context.Context,
	chatID int64,
	text string,
	markup *InlineKeyboardMarkup,
) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = toKeyboard(markup)
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return nil, c.wrap("sendMessage", err)
	}
	return fromMessage(&sent), nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	return c.request(ctx, "editMessageText", tgbotapi.NewEditMessageText(chatID, int(messageID), text))
}

func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.request(ctx, "deleteMessage", tgbotapi.NewDeleteMessage(chatID, int(messageID)))
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = showAlert && text != ""
	return c.request(ctx, "answerCallbackQuery", cfg)
}

// SendDocument uploads the file at path.
func (c *Client) SendDocument(ctx context.Context, chatID int64, path, caption string) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: filepath.Base(path), Reader: f})
	doc.Caption = caption

	sent, err := c.api.Send(doc)
	if err != nil {
		return nil, c.wrap("sendDocument", err)
	}
	return fromMessage(&sent), nil
}

func (c *Client) request(ctx context.Context, method string, cfg tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(cfg); err != nil {
		return c.wrap(method, err)
	}
	return nil
}

// wrap turns "ok": false replies into *APIError and keeps the token out of
// transport errors.
func (c *Client) wrap(method string, err error) error {
	var ptrErr *tgbotapi.Error
	if errors.As(err, &ptrErr) {
		return &APIError{Method: method, Code: ptrErr.Code, Description: ptrErr.Message}
	}
	var valErr tgbotapi.Error
	if errors.As(err, &valErr) {
		return &APIError{Method: method, Code: valErr.Code, Description: valErr.Message}
	}
	return fmt.Errorf("failed to call %s: %w", method, redact(err, c.token))
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}

func toKeyboard(m *InlineKeyboardMarkup) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.InlineKeyboard))
	for _, row := range m.InlineKeyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func fromUpdate(u tgbotapi.Update) Update {
	out := Update{
		UpdateID: int64(u.UpdateID),
		Message:  fromMessage(u.Message),
	}
	if cq := u.CallbackQuery; cq != nil {
		out.CallbackQuery = &CallbackQuery{
			ID:      cq.ID,
			Message: fromMessage(cq.Message),
			Data:    cq.Data,
		}
		if cq.From != nil {
			out.CallbackQuery.From = fromUser(cq.From)
		}
	}
	return out
}

func fromMessage(m *tgbotapi.Message) *Message {
	if m == nil {
		return nil
	}
	out := &Message{
		MessageID: int64(m.MessageID),
		Date:      int64(m.Date),
		Text:      m.Text,
		Caption:   m.Caption,
	}
	if m.From != nil {
		u := fromUser(m.From)
		out.From = &u
	}
	if m.Chat != nil {
		out.Chat = Chat{ID: m.Chat.ID, Type: m.Chat.Type}
	}
	return out
}

func fromUser(u *tgbotapi.User) User {
	return User{
		ID:        u.ID,
		IsBot:     u.IsBot,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}
