package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/BatmanBruc/docx-quiz-bot/internal/batch"
	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []*bot.SendMessageParams
	docs     []string
	names    []string
	err      error
}

func (s *fakeSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, params)
	return &models.Message{}, s.err
}

func (s *fakeSender) SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	upload, ok := params.Document.(*models.InputFileUpload)
	if !ok {
		return nil, fmt.Errorf("unexpected document %T", params.Document)
	}
	data, err := io.ReadAll(upload.Data)
	if err != nil {
		return nil, err
	}
	s.docs = append(s.docs, string(data))
	s.names = append(s.names, upload.Filename)
	return &models.Message{}, nil
}

var origin = batch.Origin{ChatID: 55, Lang: "en"}

func TestPayCallbackRoundTrip(t *testing.T) {
	data := PayCallback(types.MethodPartial, "0b7c1f0e-4a7e-4f0e-9d3c-1c2b3a4d5e6f")
	assert.LessOrEqual(t, len(data), 64)

	m, id, ok := ParsePayCallback(data)
	require.True(t, ok)
	assert.Equal(t, types.MethodPartial, m)
	assert.Equal(t, "0b7c1f0e-4a7e-4f0e-9d3c-1c2b3a4d5e6f", id)

	for _, bad := range []string{"pay:", "pay:balance", "pay:balance:", "pay:crypto:inv", "lang:ru"} {
		_, _, ok := ParsePayCallback(bad)
		assert.False(t, ok, bad)
	}
}

func TestPaymentOptionsKeyboard(t *testing.T) {
	s := &fakeSender{}
	n := NewTelegram(s, 0, nil)

	b := batch.Batch{InvoiceID: "inv-9", Origin: origin, Files: make([]batch.File, 2), TotalPrice: 10000}
	n.PaymentOptions(context.Background(), b, batch.Route(4000, 10000, 1000))

	require.Len(t, s.messages, 1)
	kb, ok := s.messages[0].ReplyMarkup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "pay:partial:inv-9", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "pay:external:inv-9", kb.InlineKeyboard[1][0].CallbackData)
	assert.Contains(t, kb.InlineKeyboard[0][0].Text, "6 000 UZS")
}

func TestBatchSettledListsFailures(t *testing.T) {
	s := &fakeSender{}
	n := NewTelegram(s, 0, nil)

	b := batch.Batch{Origin: origin, Files: make([]batch.File, 3)}
	n.BatchSettled(context.Background(), b, []string{"a.txt", "b.txt"}, []batch.FileError{{Name: "c.docx", Err: errors.New("bad zip")}})

	require.Len(t, s.messages, 1)
	assert.Contains(t, s.messages[0].Text, "2 / 3")
	assert.Contains(t, s.messages[0].Text, "c.docx")
}

func TestErrorText(t *testing.T) {
	lang := i18n.EN
	assert.Equal(t, messages.ErrorSessionExpired(lang), ErrorText(lang, batch.ErrSessionExpired))
	assert.Equal(t, messages.ErrorAlreadyProcessed(lang), ErrorText(lang, batch.ErrAlreadyProcessed))
	assert.Equal(t, messages.ErrorInsufficientBalance(lang), ErrorText(lang, types.ErrInsufficientBalance))
	assert.Equal(t, messages.ErrorPaymentUnavailable(lang), ErrorText(lang, fmt.Errorf("%w: down", batch.ErrGateway)))
	assert.Equal(t, messages.ErrorReconciliation(lang), ErrorText(lang, fmt.Errorf("%w: short", batch.ErrReconciliation)))
	assert.Equal(t, messages.ErrorDefault(lang), ErrorText(lang, errors.New("boom")))
}

func TestRejectedWithoutChatIsDropped(t *testing.T) {
	s := &fakeSender{}
	NewTelegram(s, 0, nil).Rejected(context.Background(), batch.Origin{}, batch.ErrSessionExpired)
	assert.Empty(t, s.messages)
}

func TestOperatorGoesToAdmin(t *testing.T) {
	s := &fakeSender{}
	NewTelegram(s, 0, nil).Operator(context.Background(), "ignored")
	assert.Empty(t, s.messages)

	NewTelegram(s, 900, nil).Operator(context.Background(), "invoice <x> short")
	require.Len(t, s.messages, 1)
	assert.Equal(t, int64(900), s.messages[0].ChatID)
	assert.Contains(t, s.messages[0].Text, "invoice &lt;x&gt; short")
}

func TestDeliverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("? q\n+ a\n"), 0o644))

	s := &fakeSender{}
	n := NewTelegram(s, 0, nil)
	require.NoError(t, n.DeliverFile(context.Background(), origin, path, "quiz.txt"))
	assert.Equal(t, []string{"? q\n+ a\n"}, s.docs)
	assert.Equal(t, []string{"quiz.txt"}, s.names)

	assert.Error(t, n.DeliverFile(context.Background(), origin, filepath.Join(t.TempDir(), "missing"), "x.txt"))

	s.err = errors.New("chat not found")
	assert.Error(t, n.DeliverFile(context.Background(), origin, path, "quiz.txt"))
}
