package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/stats-report/pkg/services/access"
	"github.com/de-tools/stats-report/pkg/services/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	args := m.Called(ctx, offset, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Update), args.Error(1)
}

func (m *mockAPI) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	args := m.Called(ctx, chatID, text, markup)
	return &Message{MessageID: 1}, args.Error(0)
}

func (m *mockAPI) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	return m.Called(ctx, chatID, messageID, text).Error(0)
}

func (m *mockAPI) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return m.Called(ctx, chatID, messageID).Error(0)
}

func (m *mockAPI) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	return m.Called(ctx, callbackID, text, showAlert).Error(0)
}

func (m *mockAPI) SendDocument(ctx context.Context, chatID int64, path, caption string) (*Message, error) {
	args := m.Called(ctx, chatID, path, caption)
	return &Message{MessageID: 2}, args.Error(0)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateReport(ctx context.Context, requestedBy string) (*report.Result, error) {
	args := m.Called(ctx, requestedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Result), args.Error(1)
}

const (
	adminID    = int64(42)
	strangerID = int64(7)
	chatID     = int64(1000)
	progressID = int64(55)
)

func newTestBot(t *testing.T, api *mockAPI, gen *mockGenerator) *Bot {
	t.Helper()
	b, err := NewBot(Options{
		API:        api,
		Gate:       access.NewAllowList(adminID),
		Generator:  gen,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return b
}

func startUpdate(userID int64, text string) Update {
	return Update{
		UpdateID: 1,
		Message: &Message{
			MessageID: 1,
			From:      &User{ID: userID, FirstName: "Ann"},
			Chat:      Chat{ID: chatID, Type: "private"},
			Text:      text,
		},
	}
}

func callbackUpdate(userID int64) Update {
	return Update{
		UpdateID: 2,
		CallbackQuery: &CallbackQuery{
			ID:   "cb1",
			From: User{ID: userID},
			Data: CallbackGetReport,
			Message: &Message{
				MessageID: progressID,
				Chat:      Chat{ID: chatID, Type: "private"},
			},
		},
	}
}

func TestNewBot_Validation(t *testing.T) {
	_, err := NewBot(Options{})
	assert.Error(t, err)

	_, err = NewBot(Options{API: new(mockAPI)})
	assert.Error(t, err)

	_, err = NewBot(Options{API: new(mockAPI), Gate: access.NewAllowList()})
	assert.Error(t, err)
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "/start", command("/start"))
	assert.Equal(t, "/start", command("/start@stats_bot"))
	assert.Equal(t, "/start", command("  /start payload"))
	assert.Equal(t, "", command("start"))
	assert.Equal(t, "", command(""))
}

func TestHandleStart_Authorized(t *testing.T) {
	api := new(mockAPI)
	b := newTestBot(t, api, new(mockGenerator))

	api.On("SendMessage", mock.Anything, chatID, fmt.Sprintf(textWelcome, "Ann"), MainMenuKeyboard()).Return(nil)

	b.HandleUpdate(context.Background(), startUpdate(adminID, "/start"))

	api.AssertExpectations(t)
}

func TestHandleStart_Denied(t *testing.T) {
	api := new(mockAPI)
	b := newTestBot(t, api, new(mockGenerator))

	api.On("SendMessage", mock.Anything, chatID, textAccessDenied, (*InlineKeyboardMarkup)(nil)).Return(nil)

	b.HandleUpdate(context.Background(), startUpdate(strangerID, "/start"))

	api.AssertExpectations(t)
}

func TestHandleUpdate_IgnoresOtherText(t *testing.T) {
	api := new(mockAPI)
	b := newTestBot(t, api, new(mockGenerator))

	b.HandleUpdate(context.Background(), startUpdate(adminID, "hello"))

	api.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleGetReport_Denied(t *testing.T) {
	api := new(mockAPI)
	gen := new(mockGenerator)
	b := newTestBot(t, api, gen)

	api.On("AnswerCallbackQuery", mock.Anything, "cb1", textCallbackDenied, true).Return(nil)

	b.HandleUpdate(context.Background(), callbackUpdate(strangerID))

	api.AssertExpectations(t)
	gen.AssertNotCalled(t, "GenerateReport", mock.Anything, mock.Anything)
}

func TestHandleGetReport_SendsAndRemovesFile(t *testing.T) {
	api := new(mockAPI)
	gen := new(mockGenerator)
	b := newTestBot(t, api, gen)

	file := filepath.Join(t.TempDir(), "20240301-120000.xlsx")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	api.On("EditMessageText", mock.Anything, chatID, progressID, textGenerating).Return(nil).Once()
	gen.On("GenerateReport", mock.Anything, "42").Return(&report.Result{Path: file, Rows: 2}, nil)
	api.On("SendDocument", mock.Anything, chatID, file, textReady).Return(nil)
	api.On("DeleteMessage", mock.Anything, chatID, progressID).Return(nil)
	api.On("AnswerCallbackQuery", mock.Anything, "cb1", "", false).Return(nil)

	b.HandleUpdate(context.Background(), callbackUpdate(adminID))

	api.AssertExpectations(t)
	gen.AssertExpectations(t)
	assert.NoFileExists(t, file)
}

func TestHandleGetReport_NoData(t *testing.T) {
	api := new(mockAPI)
	gen := new(mockGenerator)
	b := newTestBot(t, api, gen)

	api.On("EditMessageText", mock.Anything, chatID, progressID, textGenerating).Return(nil).Once()
	api.On("EditMessageText", mock.Anything, chatID, progressID, textNoData).Return(nil).Once()
	gen.On("GenerateReport", mock.Anything, "42").Return(nil, report.ErrNoData)
	api.On("AnswerCallbackQuery", mock.Anything, "cb1", "", false).Return(nil)

	b.HandleUpdate(context.Background(), callbackUpdate(adminID))

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "SendDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleGetReport_GenerationError(t *testing.T) {
	api := new(mockAPI)
	gen := new(mockGenerator)
	b := newTestBot(t, api, gen)

	genErr := errors.New("failed to fetch statistics: status 500")
	api.On("EditMessageText", mock.Anything, chatID, progressID, textGenerating).Return(nil).Once()
	api.On("EditMessageText", mock.Anything, chatID, progressID, fmt.Sprintf(textFailed, genErr)).Return(nil).Once()
	gen.On("GenerateReport", mock.Anything, "42").Return(nil, genErr)
	api.On("AnswerCallbackQuery", mock.Anything, "cb1", "", false).Return(nil)

	b.HandleUpdate(context.Background(), callbackUpdate(adminID))

	api.AssertExpectations(t)
}

func TestHandleGetReport_SendFailureKeepsFile(t *testing.T) {
	api := new(mockAPI)
	gen := new(mockGenerator)
	b := newTestBot(t, api, gen)

	file := filepath.Join(t.TempDir(), "r.xlsx")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	sendErr := &APIError{Method: "sendDocument", Code: 413, Description: "Request Entity Too Large"}

	api.On("EditMessageText", mock.Anything, chatID, progressID, textGenerating).Return(nil).Once()
	api.On("EditMessageText", mock.Anything, chatID, progressID, fmt.Sprintf(textFailed, sendErr)).Return(nil).Once()
	gen.On("GenerateReport", mock.Anything, "42").Return(&report.Result{Path: file}, nil)
	api.On("SendDocument", mock.Anything, chatID, file, textReady).Return(sendErr)
	api.On("AnswerCallbackQuery", mock.Anything, "cb1", "", false).Return(nil)

	b.HandleUpdate(context.Background(), callbackUpdate(adminID))

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything, mock.Anything)
	assert.FileExists(t, file)
}

func TestRun_DispatchesAndAdvancesOffset(t *testing.T) {
	api := new(mockAPI)
	b := newTestBot(t, api, new(mockGenerator))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := startUpdate(adminID, "/start")
	first.UpdateID = 5

	api.On("GetUpdates", mock.Anything, int64(0), DefaultPollTimeout).
		Return(nil, errors.New("temporary failure")).Once()
	api.On("GetUpdates", mock.Anything, int64(0), DefaultPollTimeout).
		Return([]Update{first}, nil).Once()
	api.On("GetUpdates", mock.Anything, int64(6), DefaultPollTimeout).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()
	api.On("SendMessage", mock.Anything, chatID, fmt.Sprintf(textWelcome, "Ann"), MainMenuKeyboard()).Return(nil)

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop after cancellation")
	}

	api.AssertExpectations(t)
}
