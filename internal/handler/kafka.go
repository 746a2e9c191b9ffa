package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/config"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error)
}

type kafkaHandler struct {
	dlq      *kafka.Writer
	reader   *kafka.Reader
	logger   *slog.Logger
	validate *validator.Validate
	creator  OrderCreator
}

func NewKafkaHandler(logger *slog.Logger, cfg config.Kafka, creator OrderCreator) *kafkaHandler {
	return &kafkaHandler{
		logger: logger.With(slog.String("handler", "kafka")),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.Topic,
			MaxWait: cfg.ReaderMaxWait,
		}),
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		validate: newValidator(),
		creator:  creator,
	}
}

// Consume читает заказы из топика, пока не отменен ctx.
// Сообщения, которые не удалось обработать, уходят в <topic>-dlq.
func (h *kafkaHandler) Consume(ctx context.Context) {
	for {
		m, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			}
			h.logger.Error("failed to fetch message", slog.Any("error", err))
			continue
		}

		ordersInProgress.Inc()
		start := time.Now()

		if err := h.handleCreateOrder(ctx, m); err != nil {
			ordersFailed.Inc()
			h.logger.Error("failed to handle message", slog.Any("error", err), slog.Int64("offset", m.Offset))

			// В библиотеке уже есть retry
			if err := h.writeToDLQ(ctx, m); err != nil {
				h.logger.Error("failed to write message to DLQ", slog.Any("error", err))
				ordersInProgress.Dec()
				continue
			}
			ordersDLQ.Inc()
		} else {
			ordersProcessed.Inc()
		}

		orderProcessingDuration.Observe(time.Since(start).Seconds())
		ordersInProgress.Dec()

		if err := h.reader.CommitMessages(ctx, m); err != nil {
			commitErrors.Inc()
			h.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (h *kafkaHandler) handleCreateOrder(ctx context.Context, m kafka.Message) error {
	order, err := decodeOrder(h.validate, m.Value)
	if err != nil {
		return err
	}

	created, err := h.creator.CreateOrder(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	h.logger.Debug("order created from message", slog.Int64("id", created.ID))
	return nil
}

func (h *kafkaHandler) writeToDLQ(ctx context.Context, m kafka.Message) error {
	return h.dlq.WriteMessages(ctx, kafka.Message{
		Topic:   fmt.Sprintf("%s-dlq", m.Topic),
		Key:     m.Key,
		Value:   m.Value,
		Headers: m.Headers,
	})
}

func (h *kafkaHandler) Close() error {
	if err := h.reader.Close(); err != nil {
		return err
	}
	return h.dlq.Close()
}
