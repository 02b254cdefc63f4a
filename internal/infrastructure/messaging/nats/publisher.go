package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/pkg/logger"
	"github.com/nats-io/nats.go"
)

// Потоки JetStream, в которые публикуются события дашборда
var defaultStreams = []*nats.StreamConfig{
	{
		Name:     "HEALTH",
		Subjects: []string{port.SubjectHealthAlerts},
		MaxAge:   24 * time.Hour,
		Storage:  nats.FileStorage,
	},
	{
		Name:     "REPORTS",
		Subjects: []string{port.SubjectReportsExported},
		MaxAge:   30 * 24 * time.Hour,
		Storage:  nats.FileStorage,
	},
}

// Publisher публикует события health.alerts и reports.exported в NATS JetStream.
// Реализует port.EventPublisher
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewPublisher подключается к NATS и создает недостающие потоки
func NewPublisher(natsURL string, log *logger.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("recycling-dashboard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	p := &Publisher{
		nc:     nc,
		js:     js,
		logger: log,
	}

	if err := p.ensureStreams(); err != nil {
		nc.Close()
		return nil, err
	}

	log.Info("Connected to NATS", "url", natsURL)
	return p, nil
}

func (p *Publisher) ensureStreams() error {
	for _, cfg := range defaultStreams {
		_, err := p.js.StreamInfo(cfg.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("failed to inspect stream %s: %w", cfg.Name, err)
		}
		if _, err := p.js.AddStream(cfg); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
		}
		p.logger.Info("NATS stream created", "stream", cfg.Name)
	}
	return nil
}

// PublishEvent асинхронно публикует событие в JSON
func (p *Publisher) PublishEvent(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.logger.Error("Failed to publish event", err, "subject", subject)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published", "subject", subject, "size", len(data))
	return nil
}

// Close дожидается подтверждений отправленных событий и закрывает соединение
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}

	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(5 * time.Second):
		p.logger.Warn("NATS async publish did not complete before close")
	}

	p.logger.Info("Closing NATS connection")
	p.nc.Close()
	return nil
}
