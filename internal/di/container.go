package di

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	batchRepo "github.com/reshetovitsme/post-normalizer/internal/modules/batch/repository"
	batchService "github.com/reshetovitsme/post-normalizer/internal/modules/batch/service"
	dedupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/dedup/repository"
	dedupService "github.com/reshetovitsme/post-normalizer/internal/modules/dedup/service"
	groupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/group/repository"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	inviteRepo "github.com/reshetovitsme/post-normalizer/internal/modules/invite/repository"
	inviteService "github.com/reshetovitsme/post-normalizer/internal/modules/invite/service"
	messageRepo "github.com/reshetovitsme/post-normalizer/internal/modules/message/repository"
	messageService "github.com/reshetovitsme/post-normalizer/internal/modules/message/service"
	rateRepo "github.com/reshetovitsme/post-normalizer/internal/modules/ratelimit/repository"
	rateService "github.com/reshetovitsme/post-normalizer/internal/modules/ratelimit/service"
	repostRepo "github.com/reshetovitsme/post-normalizer/internal/modules/repost/repository"
	repostService "github.com/reshetovitsme/post-normalizer/internal/modules/repost/service"
	"github.com/reshetovitsme/post-normalizer/internal/shared/config"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	httpServer "github.com/reshetovitsme/post-normalizer/internal/transport/http"
	telegramTransport "github.com/reshetovitsme/post-normalizer/internal/transport/telegram"
	"github.com/robfig/cron/v3"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Storage
	do.Provide(injector, func(i do.Injector) (*storage.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		db, err := storage.Open(cfg.DatabasePath)
		if err != nil {
			return nil, oops.With("database_path", cfg.DatabasePath, "context", "failed to open storage").Wrap(err)
		}
		return db, nil
	})

	// Register Repositories
	do.Provide(injector, func(i do.Injector) (groupRepo.Repository, error) {
		return groupRepo.NewSQLiteStorage(do.MustInvoke[*storage.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (messageRepo.Repository, error) {
		return messageRepo.NewSQLiteStorage(do.MustInvoke[*storage.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (dedupRepo.Repository, error) {
		return dedupRepo.NewSQLiteStorage(do.MustInvoke[*storage.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (rateRepo.Repository, error) {
		return rateRepo.NewSQLiteStorage(do.MustInvoke[*storage.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (repostRepo.Repository, error) {
		return repostRepo.NewSQLiteStorage(do.MustInvoke[*storage.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (inviteRepo.Repository, error) {
		return inviteRepo.NewSQLiteStorage(do.MustInvoke[*storage.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (batchRepo.Repository, error) {
		return batchRepo.NewSQLiteStorage(do.MustInvoke[*storage.DB](i)), nil
	})

	// Register Group Service
	do.Provide(injector, func(i do.Injector) (*groupService.Service, error) {
		return groupService.New(do.MustInvoke[groupRepo.Repository](i)), nil
	})

	// Register Message Service
	do.Provide(injector, func(i do.Injector) (*messageService.Service, error) {
		return messageService.New(do.MustInvoke[messageRepo.Repository](i)), nil
	})

	// Register Dedup Service
	do.Provide(injector, func(i do.Injector) (*dedupService.Service, error) {
		repo := do.MustInvoke[dedupRepo.Repository](i)
		groups := do.MustInvoke[*groupService.Service](i)
		return dedupService.New(repo, groups), nil
	})

	// Register Rate Limit Service
	do.Provide(injector, func(i do.Injector) (*rateService.Service, error) {
		return rateService.New(do.MustInvoke[rateRepo.Repository](i)), nil
	})

	// Register Telegram Client (bot attached later, see Bot provider)
	do.Provide(injector, func(i do.Injector) (*telegramTransport.Client, error) {
		return telegramTransport.NewClient(), nil
	})

	// Register Invite Service
	do.Provide(injector, func(i do.Injector) (*inviteService.Service, error) {
		repo := do.MustInvoke[inviteRepo.Repository](i)
		groups := do.MustInvoke[*groupService.Service](i)
		client := do.MustInvoke[*telegramTransport.Client](i)
		return inviteService.New(repo, groups, client), nil
	})

	// Register Repost Pipeline
	do.Provide(injector, func(i do.Injector) (*repostService.Pipeline, error) {
		cfg := do.MustInvoke[*config.Config](i)
		groups := do.MustInvoke[*groupService.Service](i)
		dedup := do.MustInvoke[*dedupService.Service](i)
		rate := do.MustInvoke[*rateService.Service](i)
		repo := do.MustInvoke[repostRepo.Repository](i)
		client := do.MustInvoke[*telegramTransport.Client](i)
		invites := do.MustInvoke[*inviteService.Service](i)
		return repostService.NewPipeline(cfg, groups, dedup, rate, repo, client, invites), nil
	})

	// Register Repost Scheduler
	do.Provide(injector, func(i do.Injector) (*repostService.Scheduler, error) {
		groups := do.MustInvoke[*groupService.Service](i)
		pipeline := do.MustInvoke[*repostService.Pipeline](i)
		return repostService.NewScheduler(groups, pipeline), nil
	})

	// Register Batch Service
	do.Provide(injector, func(i do.Injector) (*batchService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[batchRepo.Repository](i)
		groups := do.MustInvoke[*groupService.Service](i)
		archive := do.MustInvoke[*messageService.Service](i)
		pipeline := do.MustInvoke[*repostService.Pipeline](i)
		return batchService.New(cfg, repo, groups, archive, pipeline), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramTransport.Handler, error) {
		groups := do.MustInvoke[*groupService.Service](i)
		archive := do.MustInvoke[*messageService.Service](i)
		scheduler := do.MustInvoke[*repostService.Scheduler](i)
		return telegramTransport.NewHandler(groups, archive, scheduler), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		groups := do.MustInvoke[*groupService.Service](i)
		batches := do.MustInvoke[*batchService.Service](i)
		pipeline := do.MustInvoke[*repostService.Pipeline](i)
		server := httpServer.New(cfg, groups, batches, pipeline)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Cron (retention + invite sweeps)
	do.Provide(injector, func(i do.Injector) (*cron.Cron, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dedup := do.MustInvoke[*dedupService.Service](i)
		rate := do.MustInvoke[*rateService.Service](i)
		invites := do.MustInvoke[*inviteService.Service](i)

		c := cron.New()
		if _, err := c.AddFunc(cfg.InviteSweepSpec, func() {
			invites.Sweep(context.Background())
		}); err != nil {
			return nil, oops.With("spec", cfg.InviteSweepSpec, "context", "failed to schedule invite sweep").Wrap(err)
		}
		if _, err := c.AddFunc(cfg.RetentionSweepSpec, func() {
			ctx := context.Background()
			dedup.Sweep(ctx)
			rate.Sweep(ctx)
		}); err != nil {
			return nil, oops.With("spec", cfg.RetentionSweepSpec, "context", "failed to schedule retention sweep").Wrap(err)
		}
		return c, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramTransport.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.Handle),
			bot.WithAllowedUpdates([]string{"message", "edited_message"}),
		}
		if cfg.TelegramAPIURL != "" {
			opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Attach bot to the transport client
		client := do.MustInvoke[*telegramTransport.Client](i)
		client.SetBot(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx := context.Background()

	// Shutdown bot if it exists
	if b, err := do.Invoke[*bot.Bot](injector); err == nil && b != nil {
		b.Close(ctx)
	}

	// Drop pending reposts
	if scheduler, err := do.Invoke[*repostService.Scheduler](injector); err == nil && scheduler != nil {
		scheduler.Stop()
	}

	// Stop sweep schedules
	if c, err := do.Invoke[*cron.Cron](injector); err == nil && c != nil {
		c.Stop()
	}

	// Close storage last
	if db, err := do.Invoke[*storage.DB](injector); err == nil && db != nil {
		db.Close()
	}

	return nil
}
