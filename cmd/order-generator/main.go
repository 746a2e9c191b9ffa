package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/handler"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
)

var orderTypes = []string{"standard", "express", "pickup", "subscription"}

func generateOrder(f *gofakeit.Faker, invalidRate float64) handler.Order {
	products := make([]string, f.IntRange(0, 4))
	for i := range products {
		products[i] = f.ProductName()
	}

	order := handler.Order{
		Type:     f.RandomString(orderTypes),
		Products: products,
		Date:     f.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()).Format(time.DateOnly),
	}

	// часть заказов заведомо невалидна, чтобы проверить dlq
	if f.Float64Range(0, 1) < invalidRate {
		order.Type = " "
	}
	return order
}

func main() {
	godotenv.Load()

	brokers := flag.String("brokers", envOr("KAFKA_BROKERS", "localhost:9092"), "comma separated kafka brokers")
	topic := flag.String("topic", envOr("KAFKA_TOPIC", "orders"), "kafka topic")
	interval := flag.Duration("interval", 2*time.Second, "delay between orders")
	invalidRate := flag.Float64("invalid-rate", 0.1, "share of invalid orders")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	faker := gofakeit.New(0)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			order := generateOrder(faker, *invalidRate)
			data, err := json.Marshal(order)
			if err != nil {
				logger.Error("failed to marshal order", slog.Any("error", err))
				continue
			}
			if err := writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
				logger.Error("failed to write order", slog.Any("error", err))
				continue
			}
			logger.Info("order generated", slog.String("type", order.Type), slog.Int("products", len(order.Products)))
		case <-ctx.Done():
			return
		}
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
