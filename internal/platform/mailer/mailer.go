// Copyright (c) 2026 Domora. All rights reserved.
// Author: dev@domora.app

/*
Package mailer provides asynchronous transactional email delivery.

# Architecture

This package belongs to the Infrastructure layer. It decouples request
handling from SMTP latency: handlers enqueue a message onto an in-memory
outbox and return immediately, while a background worker drains the outbox
and talks to the SMTP relay.

Delivery Pipeline:

  - Enqueue: Non-blocking handoff from the request goroutine.
  - Deliver: Background worker with exponential backoff retries.
  - Drain: Graceful shutdown waits for the outbox to empty.

Delivery failures after all retries are logged and dropped; transactional
mail is best-effort and users can always request a fresh link.
*/
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/wneessen/go-mail"
)

// Delivery tuning.
const (
	outboxCapacity    = 256
	sendTimeout       = 30 * time.Second
	retryBaseInterval = 2 * time.Second
	retryMaxAttempts  = 4
)

// ErrOutboxFull is returned by Enqueue when the outbox buffer is saturated.
var ErrOutboxFull = errors.New("mailer: outbox is full")

// ErrMailerClosed is returned by Enqueue after shutdown has begun.
var ErrMailerClosed = errors.New("mailer: mailer is closed")

// Message is a single transactional email waiting for delivery.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// SMTPConfig carries the relay connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Mailer owns the outbox and the background delivery worker.
type Mailer struct {
	client *mail.Client
	config SMTPConfig
	logger *slog.Logger

	outbox chan Message

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

/*
New creates a Mailer and validates the SMTP client configuration.

Parameters:
  - config: SMTPConfig (relay host, credentials, sender identity)
  - logger: Structured logger for delivery events

Returns:
  - *Mailer: Ready-to-start mailer
  - error: Configuration error (invalid host or options)
*/
func New(config SMTPConfig, logger *slog.Logger) (*Mailer, error) {

	// 1. Build the underlying SMTP client
	clientOptions := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(sendTimeout),
	}

	// Credentials are optional: a local relay in DEV needs none.
	if config.Username != "" {
		clientOptions = append(clientOptions,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	client, err := mail.NewClient(config.Host, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("mailer_client_init_failed: %w", err)
	}

	// 2. Assemble the mailer with a buffered outbox
	return &Mailer{
		client: client,
		config: config,
		logger: logger,
		outbox: make(chan Message, outboxCapacity),
	}, nil
}

/*
Start launches the background delivery worker.

The worker runs until Close is called and the outbox is drained. The context
bounds individual delivery attempts, not the worker lifetime.
*/
func (mailer *Mailer) Start(ctx context.Context) {
	mailer.wg.Add(1)

	go func() {
		defer mailer.wg.Done()

		for message := range mailer.outbox {
			mailer.deliver(ctx, message)
		}
	}()

	mailer.logger.Info("mailer_worker_started",
		slog.String("host", mailer.config.Host),
		slog.Int("outbox_capacity", outboxCapacity),
	)
}

/*
Enqueue hands a message to the background worker without blocking.

Returns:
  - error: ErrOutboxFull when the buffer is saturated, ErrMailerClosed after shutdown
*/
func (mailer *Mailer) Enqueue(message Message) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()

	if mailer.closed {
		return ErrMailerClosed
	}

	select {
	case mailer.outbox <- message:
		return nil
	default:
		return ErrOutboxFull
	}
}

/*
Close stops accepting new messages and waits for the outbox to drain.

Safe to call more than once.
*/
func (mailer *Mailer) Close() {
	mailer.mu.Lock()
	if mailer.closed {
		mailer.mu.Unlock()
		return
	}
	mailer.closed = true
	close(mailer.outbox)
	mailer.mu.Unlock()

	mailer.wg.Wait()
	mailer.logger.Info("mailer_worker_stopped")
}

// deliver attempts delivery with exponential backoff, logging the outcome.
func (mailer *Mailer) deliver(ctx context.Context, message Message) {

	// 1. Compose the wire message
	wireMessage := mail.NewMsg()

	if err := wireMessage.FromFormat(mailer.config.FromName, mailer.config.From); err != nil {
		mailer.logger.Error("mailer_invalid_sender", slog.Any("error", err))
		return
	}

	if err := wireMessage.AddToFormat(message.ToName, message.To); err != nil {
		mailer.logger.Error("mailer_invalid_recipient",
			slog.String("to", message.To),
			slog.Any("error", err),
		)
		return
	}

	wireMessage.Subject(message.Subject)
	wireMessage.SetBodyString(mail.TypeTextHTML, message.HTMLBody)

	// 2. Deliver with capped exponential backoff
	backoff := retry.WithMaxRetries(retryMaxAttempts, retry.NewExponential(retryBaseInterval))

	err := retry.Do(ctx, backoff, func(attemptCtx context.Context) error {
		sendCtx, cancel := context.WithTimeout(attemptCtx, sendTimeout)
		defer cancel()

		if sendErr := mailer.client.DialAndSendWithContext(sendCtx, wireMessage); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})

	// 3. Log the final outcome
	if err != nil {
		mailer.logger.Error("mailer_delivery_failed",
			slog.String("to", message.To),
			slog.String("subject", message.Subject),
			slog.Any("error", err),
		)
		return
	}

	mailer.logger.Info("mailer_delivery_succeeded",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
	)
}
