package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	notificationUsecases "github.com/orris-inc/tollgate/internal/application/notification/usecases"
	"github.com/orris-inc/tollgate/internal/infrastructure/database"
	"github.com/orris-inc/tollgate/internal/infrastructure/email"
	"github.com/orris-inc/tollgate/internal/infrastructure/queue"
	"github.com/orris-inc/tollgate/internal/infrastructure/repository"
	"github.com/orris-inc/tollgate/internal/infrastructure/scheduler"
	"github.com/orris-inc/tollgate/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/tollgate/internal/shared/goroutine"
)

var flags bootstrap.Flags

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background worker",
		Long:  `Deliver queued billing emails and run the periodic jobs: retry promotion and webhook event log pruning.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&flags.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		flags.Env = envVar
	}

	cfg, log, err := bootstrap.InitDatabase(flags)
	if err != nil {
		return err
	}
	defer database.Close()

	if !cfg.Redis.Enabled {
		return fmt.Errorf("worker requires redis.enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	emailQueue := queue.NewEmailQueue(redisClient, queue.Options{
		Key:        cfg.Queue.EmailQueueKey,
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
	})

	renderer, err := email.NewMarkdownRenderer(cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}
	deliver := notificationUsecases.NewDeliverEmailUseCase(renderer, email.NewSMTPSender(cfg.Email), log)
	consumer := queue.NewConsumer(emailQueue, deliver.Execute, cfg.Queue.PollTimeout, log)

	sched, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return err
	}
	if err := sched.RegisterQueueJobs(emailQueue, cfg.Scheduler.RetryPromoteInterval); err != nil {
		return err
	}
	if err := sched.RegisterEventLogJobs(repository.NewWebhookEventRepository(database.Get()), cfg.Scheduler.EventRetentionDays); err != nil {
		return err
	}
	sched.Start()

	log.Infow("worker started", "environment", flags.Env, "queue", cfg.Queue.EmailQueueKey)

	done := make(chan struct{})
	goroutine.SafeGo(log, "email-consumer", func() {
		defer close(done)
		consumer.Run(ctx)
	})

	<-ctx.Done()
	log.Infow("shutting down worker")

	if err := sched.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
	}
	<-done

	log.Infow("worker exited gracefully")
	return nil
}
