package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/baechuer/contacts-api/internal/config"
	"github.com/baechuer/contacts-api/internal/infrastructure/email"
	"github.com/baechuer/contacts-api/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/contacts-api/internal/logger"
)

// NewMailWorkerCmd creates the mail-worker subcommand, which drains the mail
// queue filled by MAIL_TRANSPORT=rabbitmq and delivers over SMTP.
func NewMailWorkerCmd() *cobra.Command {
	var prefetch int

	cmd := &cobra.Command{
		Use:   "mail-worker",
		Short: "Consume queued mail and deliver it over SMTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateMailWorker(); err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runMailWorker(ctx, cfg, prefetch)
		},
	}
	cmd.Flags().IntVar(&prefetch, "prefetch", 10, "unacked deliveries per consumer")

	return cmd
}

func runMailWorker(ctx context.Context, cfg *config.Config, prefetch int) error {
	lg := logger.Logger.With().Str("component", "mail_worker").Logger()

	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		Timeout:  cfg.MailTimeout,
		Insecure: cfg.SMTPInsecure,
	}, lg)

	consumer := rabbitmq.NewMailConsumer(rabbitmq.ConsumerConfig{
		RabbitURL:   cfg.RabbitURL,
		Exchange:    cfg.RabbitExchange,
		Queue:       cfg.MailQueue,
		Prefetch:    prefetch,
		Tag:         "contacts-api-mail-worker",
		MaxAttempts: cfg.MailMaxAttempt,
	}, sender, lg)

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("mail-worker: start consumer: %w", err)
	}
	lg.Info().Str("queue", cfg.MailQueue).Msg("mail worker started")

	select {
	case <-ctx.Done():
		lg.Info().Msg("shutdown signal received")
	case <-consumer.Done():
		lg.Warn().Msg("consumer stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := consumer.Stop(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("consumer shutdown failed")
		return err
	}

	lg.Info().Msg("mail worker stopped")
	return nil
}
