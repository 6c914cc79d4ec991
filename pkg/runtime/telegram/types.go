package telegram

import "fmt"

// The types below are the bot's view of Telegram objects; Client converts
// library types into them.

type User struct {
	ID        int64
	IsBot     bool
	FirstName string
	LastName  string
	Username  string
}

type Chat struct {
	ID   int64
	Type string
}

type Message struct {
	MessageID int64
	From      *User
	Chat      Chat
	Date      int64
	Text      string
	Caption   string
}

type CallbackQuery struct {
	ID      string
	From    User
	Message *Message
	Data    string
}

type Update struct {
	UpdateID      int64
	Message       *Message
	CallbackQuery *CallbackQuery
}

type InlineKeyboardButton struct {
	Text         string
	CallbackData string
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton
}

// APIError is a reply with "ok": false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed with code %d: %s", e.Method, e.Code, e.Description)
}
