package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
)

// FanOutRunner is the slice of the fan-out engine the consumer needs.
type FanOutRunner interface {
	FanOut(ctx context.Context, req *models.FanOutRequest) error
}

// FanOutConsumer feeds queued notification events into the fan-out engine.
type FanOutConsumer struct {
	base          *BaseConsumer
	engine        FanOutRunner
	logger        *slog.Logger
	maxDeliveries int
}

func NewFanOutConsumer(base *BaseConsumer, engine FanOutRunner, logger *slog.Logger, maxDeliveries int) *FanOutConsumer {
	if maxDeliveries <= 0 {
		maxDeliveries = 5
	}
	return &FanOutConsumer{
		base:          base,
		engine:        engine,
		logger:        logger,
		maxDeliveries: maxDeliveries,
	}
}

func (c *FanOutConsumer) Start(ctx context.Context) error {
	return c.base.Start(ctx, c.handleDelivery)
}

func (c *FanOutConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) error {
	var req models.FanOutRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		c.logger.Error("failed to unmarshal fan-out event", slog.Any("error", err))
		_ = msg.Reject(false)
		return err
	}

	if code := req.Validate(); code != models.CodeSuccess {
		// Malformed events never become valid on redelivery.
		err := models.Errf(code, nil)
		c.logger.Error("invalid fan-out event dead-lettered",
			slog.String("kind", string(req.RequestType)), slog.Any("error", err))
		_ = msg.Reject(false)
		return err
	}

	if err := c.engine.FanOut(ctx, &req); err != nil {
		requeue := c.shouldRetry(&msg)
		if requeue {
			c.logger.Warn("fan-out failed, message requeued",
				slog.String("kind", string(req.RequestType)), slog.Any("error", err))
		} else {
			c.logger.Error("fan-out failed, message dead-lettered",
				slog.String("kind", string(req.RequestType)), slog.Any("error", err))
		}
		_ = msg.Nack(false, requeue)
		return err
	}

	return msg.Ack(false)
}

func (c *FanOutConsumer) shouldRetry(msg *amqp.Delivery) bool {
	return deliveryAttempts(msg) < c.maxDeliveries
}

func deliveryAttempts(msg *amqp.Delivery) int {
	if msg.Headers == nil {
		if msg.Redelivered {
			return 1
		}
		return 0
	}
	if raw, ok := msg.Headers["x-death"]; ok {
		if deaths, ok := raw.([]interface{}); ok && len(deaths) > 0 {
			if table, ok := deaths[0].(amqp.Table); ok {
				if count, ok := table["count"].(int64); ok {
					return int(count)
				}
			}
		}
	}
	if msg.Redelivered {
		return 1
	}
	return 0
}
