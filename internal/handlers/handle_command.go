package handlers

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/codes"
	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/internal/messages"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot/models"
)

var errUsage = errors.New("usage")

const promoListLimit = 10

func (bh *Handlers) HandleCommand(ctx context.Context, b BotAPI, update *models.Update, userID int64) {
	msg := update.Message
	lang := langFromCtx(ctx)
	fields := strings.Fields(strings.TrimSpace(msg.Text))
	if len(fields) == 0 {
		return
	}
	cmd := fields[0]
	if strings.Contains(cmd, "@") {
		cmd = strings.SplitN(cmd, "@", 2)[0]
	}

	switch cmd {
	case "/start":
		bh.handleStart(ctx, b, msg, lang)
	case "/menu":
		bh.sendMainMenu(ctx, b, msg.Chat.ID, lang)
	case "/help":
		bh.sendText(ctx, b, msg.Chat.ID, messages.HelpText(lang, bh.price(ctx)), nil)
	case "/balance":
		bh.sendBalance(ctx, b, msg.Chat.ID, userID, lang, nil)
	case "/language":
		bh.sendLanguagePicker(ctx, b, msg.Chat.ID)
	case "/newpromo", "/promos", "/setprice", "/setoffer", "/stats":
		if !bh.isAdmin(ctx, userID) {
			bh.sendText(ctx, b, msg.Chat.ID, messages.AdminOnly(lang), nil)
			return
		}
		bh.handleAdminCommand(ctx, b, msg.Chat.ID, cmd, fields[1:])
	default:
		bh.sendText(ctx, b, msg.Chat.ID, messages.ErrorUnknownCommand(lang), nil)
	}
}

// handleStart registers the user, applies a referral code on first contact
// and shows the language picker or the menu.
func (bh *Handlers) handleStart(ctx context.Context, b BotAPI, msg *models.Message, lang i18n.Lang) {
	from := msg.From
	if from == nil {
		return
	}
	user := types.User{
		UserID:    from.ID,
		ChatID:    msg.Chat.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}

	var (
		stored  *types.User
		created bool
		err     error
	)
	for attempt := 0; attempt < 3; attempt++ {
		user.ReferralCode = codes.Referral()
		stored, created, err = bh.users.UpsertUser(ctx, user)
		if !errors.Is(err, types.ErrConflict) {
			break
		}
	}
	if err != nil {
		bh.log.Error(ctx, "Failed to register user", "error", err)
		bh.sendText(ctx, b, msg.Chat.ID, messages.ErrorDefault(lang), nil)
		return
	}

	if created {
		bh.log.Info(ctx, "New user", "username", from.Username)
		if code := codes.FromStart(msg.Text); code != "" {
			bh.applyReferral(ctx, b, stored, code)
		}
	}

	if l, ok := i18n.Lookup(stored.Language); ok {
		bh.sendMainMenu(ctx, b, msg.Chat.ID, l)
		return
	}
	bh.sendLanguagePicker(ctx, b, msg.Chat.ID)
}

func (bh *Handlers) applyReferral(ctx context.Context, b BotAPI, referred *types.User, code string) {
	referrer, err := bh.users.GetUserByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			bh.log.Warn(ctx, "Failed to look up referral code", "code", code, "error", err)
		}
		return
	}
	if referrer.UserID == referred.UserID {
		return
	}

	reward := bh.loadSettings(ctx).ReferralReward
	if err := bh.users.RewardReferral(ctx, referrer.UserID, referred.UserID, reward); err != nil {
		if !errors.Is(err, types.ErrAlreadyReferred) {
			bh.log.Error(ctx, "Failed to reward referral", "referrer_id", referrer.UserID, "error", err)
		}
		return
	}
	bh.log.Info(ctx, "Referral rewarded", "referrer_id", referrer.UserID, "reward", reward)
	if reward <= 0 {
		return
	}

	balance, err := bh.ledger.Balance(ctx, referrer.UserID)
	if err != nil {
		bh.log.Warn(ctx, "Failed to read referrer balance", "error", err)
	}
	chatID := referrer.ChatID
	if chatID == 0 {
		chatID = referrer.UserID
	}
	bh.sendText(ctx, b, chatID, messages.ReferralRewarded(i18n.Parse(referrer.Language), reward, balance), nil)
}

func (bh *Handlers) sendBalance(ctx context.Context, b BotAPI, chatID, userID int64, lang i18n.Lang, markup models.ReplyMarkup) {
	balance, err := bh.ledger.Balance(ctx, userID)
	if err != nil {
		bh.log.Error(ctx, "Failed to read balance", "error", err)
		bh.sendText(ctx, b, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	bh.sendText(ctx, b, chatID, messages.BalanceText(lang, balance, bh.price(ctx)), markup)
}

func (bh *Handlers) handleAdminCommand(ctx context.Context, b BotAPI, chatID int64, cmd string, args []string) {
	switch cmd {
	case "/newpromo":
		p, err := parseNewPromoArgs(args)
		if err != nil {
			bh.sendText(ctx, b, chatID, messages.AdminNewPromoUsage(), nil)
			return
		}
		p.Active = true
		err = bh.promos.CreatePromo(ctx, p)
		switch {
		case errors.Is(err, types.ErrPromoExists):
			bh.sendText(ctx, b, chatID, messages.AdminPromoExists(p.Code), nil)
		case err != nil:
			bh.log.Error(ctx, "Failed to create promo", "code", p.Code, "error", err)
			bh.sendText(ctx, b, chatID, messages.ErrorDefault(i18n.EN), nil)
		default:
			bh.log.Info(ctx, "Promo created", "code", p.Code, "amount", p.RewardAmount, "max_uses", p.MaxUses)
			bh.sendText(ctx, b, chatID, messages.AdminPromoCreated(p.Code, p.RewardAmount, p.MaxUses), nil)
		}
	case "/setprice":
		if len(args) != 1 {
			bh.sendText(ctx, b, chatID, messages.AdminSetPriceUsage(), nil)
			return
		}
		price, err := parseAmount(args[0])
		if err != nil {
			bh.sendText(ctx, b, chatID, messages.AdminSetPriceUsage(), nil)
			return
		}
		if err := bh.settings.SetFilePrice(ctx, price); err != nil {
			bh.log.Error(ctx, "Failed to set price", "price", price, "error", err)
			bh.sendText(ctx, b, chatID, messages.ErrorDefault(i18n.EN), nil)
			return
		}
		bh.log.Info(ctx, "File price changed", "price", price)
		bh.sendText(ctx, b, chatID, messages.AdminPriceUpdated(price), nil)
	case "/promos":
		promos, err := bh.promos.ListPromos(ctx, promoListLimit)
		if err != nil {
			bh.log.Error(ctx, "Failed to list promos", "error", err)
			bh.sendText(ctx, b, chatID, messages.ErrorDefault(i18n.EN), nil)
			return
		}
		if len(promos) == 0 {
			bh.sendText(ctx, b, chatID, messages.AdminNoPromos(), nil)
			return
		}
		bh.sendText(ctx, b, chatID, messages.AdminPromoList(promos), nil)
	case "/setoffer":
		lang, link, err := parseSetOfferArgs(args)
		if err != nil {
			bh.sendText(ctx, b, chatID, messages.AdminSetOfferUsage(), nil)
			return
		}
		if err := bh.settings.SetOfferLink(ctx, string(lang), link); err != nil {
			bh.log.Error(ctx, "Failed to set offer link", "lang", lang, "error", err)
			bh.sendText(ctx, b, chatID, messages.ErrorDefault(i18n.EN), nil)
			return
		}
		bh.log.Info(ctx, "Offer link changed", "lang", lang, "link", link)
		bh.sendText(ctx, b, chatID, messages.AdminOfferUpdated(string(lang), link), nil)
	case "/stats":
		st, err := bh.settings.Stats(ctx)
		if err != nil {
			bh.log.Error(ctx, "Failed to read stats", "error", err)
			bh.sendText(ctx, b, chatID, messages.ErrorDefault(i18n.EN), nil)
			return
		}
		bh.sendText(ctx, b, chatID, messages.AdminStats(st.Users, st.PaidInvoices, st.Revenue), nil)
	}
}

// parseNewPromoArgs reads "CODE AMOUNT USES"; CODE "-" asks for a random code.
func parseNewPromoArgs(args []string) (types.Promocode, error) {
	if len(args) != 3 {
		return types.Promocode{}, errUsage
	}
	code := codes.Promo()
	if args[0] != "-" {
		var ok bool
		code, ok = codes.NormalizePromo(args[0])
		if !ok {
			return types.Promocode{}, errUsage
		}
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return types.Promocode{}, err
	}
	uses, err := strconv.Atoi(args[2])
	if err != nil || uses < 0 {
		return types.Promocode{}, errUsage
	}
	return types.Promocode{Code: code, RewardAmount: amount, MaxUses: uses}, nil
}

// parseSetOfferArgs reads "LANG URL"; URL "-" clears the link.
func parseSetOfferArgs(args []string) (i18n.Lang, string, error) {
	if len(args) != 2 {
		return "", "", errUsage
	}
	lang, ok := i18n.Lookup(args[0])
	if !ok {
		return "", "", errUsage
	}
	if args[1] == "-" {
		return lang, "", nil
	}
	u, err := url.Parse(args[1])
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", errUsage
	}
	return lang, args[1], nil
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), 10, 64)
	if err != nil || n <= 0 {
		return 0, errUsage
	}
	return n, nil
}
