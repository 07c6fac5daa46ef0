package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/BatmanBruc/docx-quiz-bot/internal/contextkeys"
	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[int64]*types.User

func (f fakeUsers) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	u, ok := f[userID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return u, nil
}

type fakeStates struct {
	states map[int64]types.UserState
	err    error
}

func (f *fakeStates) GetUserState(ctx context.Context, userID int64) (types.UserState, error) {
	if f.err != nil {
		return types.UserState{}, f.err
	}
	return f.states[userID], nil
}

func (f *fakeStates) SetUserState(ctx context.Context, userID int64, state types.UserState) error {
	f.states[userID] = state
	return nil
}

func (f *fakeStates) ClearAwaiting(ctx context.Context, userID int64) error {
	st := f.states[userID]
	st.Awaiting = types.AwaitingNothing
	f.states[userID] = st
	return nil
}

func run(t *testing.T, m *Middlewares, update *models.Update) (context.Context, bool) {
	t.Helper()
	var (
		got    context.Context
		called bool
	)
	h := m.UserMiddleware(m.AnalyzeMessageMiddleware(func(ctx context.Context, b *bot.Bot, u *models.Update) {
		got, called = ctx, true
	}))
	h(context.Background(), nil, update)
	return got, called
}

func TestUserMiddlewareResolvesLanguage(t *testing.T) {
	states := &fakeStates{states: map[int64]types.UserState{1: {Lang: "ru"}}}
	users := fakeUsers{2: {UserID: 2, Language: "en"}}
	m := NewMiddlewares(users, states, nil)

	msg := func(id int64, code string) *models.Update {
		return &models.Update{Message: &models.Message{
			ID:   10,
			Text: "hi",
			From: &models.User{ID: id, LanguageCode: code},
			Chat: models.Chat{ID: id},
		}}
	}

	ctx, ok := run(t, m, msg(1, "en"))
	require.True(t, ok)
	lang, _ := contextkeys.GetLang(ctx)
	assert.Equal(t, "ru", lang)

	ctx, _ = run(t, m, msg(2, "ru"))
	lang, _ = contextkeys.GetLang(ctx)
	assert.Equal(t, "en", lang)
	assert.Equal(t, "en", states.states[2].Lang)

	ctx, _ = run(t, m, msg(3, "ru-RU"))
	lang, _ = contextkeys.GetLang(ctx)
	assert.Equal(t, string(i18n.RU), lang)
	id, _ := contextkeys.GetUserID(ctx)
	assert.Equal(t, int64(3), id)
}

func TestUserMiddlewareFallsBackWhenStateFails(t *testing.T) {
	m := NewMiddlewares(nil, &fakeStates{err: errors.New("redis down")}, nil)

	ctx, ok := run(t, m, &models.Update{Message: &models.Message{From: &models.User{ID: 5}, Text: "x"}})
	require.True(t, ok)
	lang, _ := contextkeys.GetLang(ctx)
	assert.Equal(t, string(i18n.Default), lang)
}

func TestUserMiddlewareDropsAnonymousUpdates(t *testing.T) {
	m := NewMiddlewares(nil, nil, nil)
	_, ok := run(t, m, &models.Update{Message: &models.Message{Text: "channel post"}})
	assert.False(t, ok)
}

func TestAnalyze(t *testing.T) {
	cases := []struct {
		name   string
		update *models.Update
		want   contextkeys.MessageType
	}{
		{"command", &models.Update{Message: &models.Message{Text: "/start ref"}}, contextkeys.MessageTypeCommand},
		{"text", &models.Update{Message: &models.Message{Text: "PROMO1"}}, contextkeys.MessageTypeText},
		{"photo", &models.Update{Message: &models.Message{Photo: []models.PhotoSize{{FileID: "p"}}}}, contextkeys.MessageTypeMedia},
		{"callback", &models.Update{CallbackQuery: &models.CallbackQuery{Data: "menu:balance"}}, contextkeys.MessageTypeClickButton},
		{"precheckout", &models.Update{PreCheckoutQuery: &models.PreCheckoutQuery{ID: "q"}}, contextkeys.MessageTypePreCheckout},
		{"payment", &models.Update{Message: &models.Message{SuccessfulPayment: &models.SuccessfulPayment{}}}, contextkeys.MessageTypePayment},
		{"empty", &models.Update{Message: &models.Message{}}, contextkeys.MessageTypeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := contextkeys.GetMessageType(Analyze(context.Background(), tc.update))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAnalyzeDocumentCarriesGroup(t *testing.T) {
	ctx := Analyze(context.Background(), &models.Update{Message: &models.Message{
		ID:           42,
		MediaGroupID: "album-1",
		Document:     &models.Document{FileID: "f1", FileName: "quiz.docx"},
	}})

	info, ok := contextkeys.GetFileInfo(ctx)
	require.True(t, ok)
	assert.Equal(t, contextkeys.FileInfo{FileID: "f1", FileName: "quiz.docx", MediaGroupID: "album-1", MessageID: 42}, info)
}

func TestRecover(t *testing.T) {
	m := NewMiddlewares(nil, nil, nil)
	h := m.Recover(func(ctx context.Context, b *bot.Bot, u *models.Update) { panic("boom") })
	assert.NotPanics(t, func() { h(context.Background(), nil, &models.Update{}) })
}
