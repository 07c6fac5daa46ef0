package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BatmanBruc/docx-quiz-bot/internal/batch"
	"github.com/BatmanBruc/docx-quiz-bot/internal/config"
	"github.com/BatmanBruc/docx-quiz-bot/internal/converter"
	"github.com/BatmanBruc/docx-quiz-bot/internal/files"
	"github.com/BatmanBruc/docx-quiz-bot/internal/handlers"
	"github.com/BatmanBruc/docx-quiz-bot/internal/middleware"
	"github.com/BatmanBruc/docx-quiz-bot/internal/notifier"
	"github.com/BatmanBruc/docx-quiz-bot/internal/payment"
	"github.com/BatmanBruc/docx-quiz-bot/internal/scheduler"
	"github.com/BatmanBruc/docx-quiz-bot/pkg/logger"
	"github.com/BatmanBruc/docx-quiz-bot/store"
	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Logging.Level)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cfg.Validate(); err != nil {
		log.Fatal(ctx, "Invalid configuration", "error", err)
	}

	rdb, err := store.NewRedisClient(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	if err != nil {
		log.Fatal(ctx, "Failed to connect to Redis", "addr", cfg.Redis.Addr(), "error", err)
	}
	defer rdb.Close()
	userStates := store.NewRedisUserStore(rdb, cfg.Redis.StateTTL)

	pgStore, err := store.NewPostgresStore(ctx, cfg.Postgres.DSN, store.PostgresParams{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		DB:       cfg.Postgres.DB,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
	})
	if err != nil {
		log.Fatal(ctx, "Failed to connect to Postgres", "error", err)
	}
	defer pgStore.Close()

	err = pgStore.EnsureSettings(ctx, types.Settings{
		FilePrice:         cfg.Billing.FilePrice,
		ReferralReward:    cfg.Billing.ReferralReward,
		MinExternalCharge: cfg.Billing.MinExternalCharge,
		OfferUZ:           cfg.Offer.UZ,
		OfferRU:           cfg.Offer.RU,
		OfferEN:           cfg.Offer.EN,
	})
	if err != nil {
		log.Fatal(ctx, "Failed to seed settings", "error", err)
	}

	httpClient := &http.Client{
		Timeout: cfg.Bot.PollTimeout + 30*time.Second,
	}
	b, err := bot.New(
		cfg.Bot.Token,
		bot.WithHTTPClient(cfg.Bot.PollTimeout, httpClient),
	)
	if err != nil {
		log.Fatal(ctx, "Failed to create bot", "error", err)
	}
	me, err := b.GetMe(ctx)
	if err != nil {
		log.Fatal(ctx, "Failed to get bot profile", "error", err)
	}

	storage, err := files.NewStorage(cfg.Storage.Dir)
	if err != nil {
		log.Fatal(ctx, "Failed to prepare file storage", "dir", cfg.Storage.Dir, "error", err)
	}
	downloader := files.NewDownloader(b, cfg.Bot.Token, storage, cfg.Storage.DownloadRate)
	tg := notifier.NewTelegram(b, cfg.Bot.AdminID, log)

	batches := batch.NewService(
		batch.Config{
			Debounce:          cfg.Batch.Debounce,
			AbandonAfter:      cfg.Batch.AbandonAfter,
			MinExternalCharge: cfg.Billing.MinExternalCharge,
		},
		batch.Deps{
			Ledger:    pgStore,
			Payments:  pgStore,
			Converter: converter.NewDocxConverter(),
			Gateway:   payment.NewTelegramGateway(b, cfg.Bot.ProviderToken, cfg.Bot.Currency),
			Notifier:  tg,
			Deliverer: tg,
			Artifacts: storage,
			Logger:    log,
		},
	)
	defer batches.Stop()

	sweeper, err := scheduler.NewScheduler(storage, batches, log, scheduler.Config{
		SweepSchedule: cfg.Storage.SweepSchedule,
		SweepMaxAge:   cfg.Storage.SweepMaxAge,
	})
	if err != nil {
		log.Fatal(ctx, "Failed to create scheduler", "error", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	h := handlers.NewHandlers(
		handlers.Config{
			AdminID:     cfg.Bot.AdminID,
			BotUsername: me.Username,
			Currency:    cfg.Bot.Currency,
		},
		handlers.Deps{
			Batches:    batches,
			Users:      pgStore,
			Settings:   pgStore,
			Promos:     pgStore,
			Ledger:     pgStore,
			States:     userStates,
			Downloader: downloader,
			Artifacts:  storage,
			Logger:     log,
		},
	)

	middlewares := middleware.NewMiddlewares(pgStore, userStates, log)
	handlerChain := middlewares.Recover(
		middlewares.UserMiddleware(
			middlewares.AnalyzeMessageMiddleware(
				h.MainHandler,
			),
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.PreCheckoutQuery != nil
	}, handlerChain)

	log.Info(ctx, "Bot started", "username", me.Username, "price", cfg.Billing.FilePrice)
	b.Start(ctx)
	log.Info(ctx, "Bot stopped")
}
