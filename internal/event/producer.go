// Package event publishes saga lifecycle events to Kafka. Events are a
// notification channel for downstream consumers (reporting, auditing); they
// carry no saga state and the saga never depends on their delivery.
package event

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/internal/domain"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/kafka"
	"github.com/AlexBrosseauEts/log430-labo6-saga-orchestrator/pkg/logger"
)

const (
	// TopicSagaEvents is the topic all saga lifecycle events go to.
	TopicSagaEvents = "saga.order.events"

	// EventSagaCompleted marks a saga that ended with the order placed.
	EventSagaCompleted = "saga.order.completed"
	// EventSagaFailed marks a saga that ended compensated.
	EventSagaFailed = "saga.order.failed"

	aggregateType = "order"
	source        = "saga-orchestrator"
)

// sagaCompletedData is the payload of both lifecycle events.
type sagaCompletedData struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// Producer publishes orchestrator lifecycle events.
type Producer struct {
	kafka  *kafka.Producer
	logger *slog.Logger
}

// NewProducer wraps a Kafka producer for saga events.
func NewProducer(p *kafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: p, logger: logger}
}

// SagaFinished publishes the terminal lifecycle event for a saga. Publish
// failures are logged and swallowed: the saga outcome is already decided
// and must not be altered by messaging trouble.
func (p *Producer) SagaFinished(ctx context.Context, data *domain.OrderData, result domain.SagaResult) {
	if p == nil || p.kafka == nil {
		return
	}

	eventType := EventSagaCompleted
	if !result.Success {
		eventType = EventSagaFailed
	}

	evt, err := kafka.NewEvent(eventType, strconv.FormatInt(result.OrderID, 10), aggregateType, source, sagaCompletedData{
		OrderID: result.OrderID,
		UserID:  data.UserID,
		Success: result.Success,
		Status:  result.Status,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build saga event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}

	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, TopicSagaEvents, evt); err != nil {
		p.logger.WarnContext(ctx, "saga event dropped",
			slog.String("event_type", eventType),
			slog.Int64("order_id", result.OrderID),
		)
	}
}
