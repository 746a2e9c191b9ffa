package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-crud-service/pkg/trm"
)

type OrderRepo interface {
	FindAll(ctx context.Context) ([]entities.Order, error)
	// Отсутствие заказа не ошибка, а false
	FindByID(ctx context.Context, id int64) (entities.Order, bool, error)
	// Save вставляет заказ с нулевым ID, иначе перезаписывает существующий
	Save(ctx context.Context, o entities.Order) (entities.Order, error)
	// Update меняет только существующий заказ, если его нет, возвращает false
	Update(ctx context.Context, o entities.Order) (entities.Order, bool, error)
	// Удаление несуществующего заказа не ошибка
	DeleteByID(ctx context.Context, id int64) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
	Version() uint64
	SetIfVersion(key string, value []byte, version uint64) bool
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	cache     Cache
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, repo OrderRepo, cache Cache) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		cache:     cache,
	}
}

func (s *orderService) ListOrders(ctx context.Context) ([]entities.Order, error) {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id int64) (entities.Order, bool, error) {
	key := cacheKey(id)
	if data, ok := s.cache.Get(key); ok {
		var order entities.Order
		err := order.Unmarshal(data)
		if err == nil {
			return order, true, nil
		}
		// битая запись не должна ломать чтение, идем в хранилище
		s.logger.Error("failed to unmarshal cached order", slog.Int64("id", id), slog.Any("error", err))
		s.cache.Delete(key)
	}

	// версия снимается до чтения, иначе параллельный Delete не помешает
	// положить в кеш уже удаленный заказ
	version := s.cache.Version()
	order, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return entities.Order{}, false, fmt.Errorf("failed to get order: %w", err)
	}
	if !ok {
		return entities.Order{}, false, nil
	}

	if data, err := order.Marshal(); err != nil {
		s.logger.Error("failed to marshal order", slog.Int64("id", id), slog.Any("error", err))
	} else if !s.cache.SetIfVersion(key, data, version) {
		s.logger.Debug("order changed while reading, not cached", slog.Int64("id", id))
	}
	return order, true, nil
}

// CreateOrder сохраняет новый заказ, переданный ID игнорируется.
func (s *orderService) CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error) {
	order.ID = 0

	created, err := s.repo.Save(ctx, order)
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Debug("order created", slog.Int64("id", created.ID))
	return created, nil
}

// UpdateOrder заменяет тип, товары и дату существующего заказа.
// Если заказа нет, возвращает false и ничего не создает.
func (s *orderService) UpdateOrder(ctx context.Context, id int64, order entities.Order) (entities.Order, bool, error) {
	order.ID = id

	var (
		updated entities.Order
		found   bool
	)
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		updated, found, err = s.repo.Update(ctx, order)
		return err
	})
	if err != nil {
		return entities.Order{}, false, fmt.Errorf("failed to update order: %w", err)
	}
	if !found {
		return entities.Order{}, false, nil
	}

	s.cache.Delete(cacheKey(id))
	s.logger.Debug("order updated", slog.Int64("id", id))
	return updated, true, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.cache.Delete(cacheKey(id))
	s.logger.Debug("order deleted", slog.Int64("id", id))
	return nil
}

// WarmUpCache кладет в кеш не более count заказов из хранилища.
func (s *orderService) WarmUpCache(ctx context.Context, count int) error {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}

	if len(orders) > count {
		orders = orders[len(orders)-count:]
	}
	for _, order := range orders {
		s.cacheOrder(order)
	}

	s.logger.Info("cache warmed up", slog.Int("count", len(orders)))
	return nil
}

func (s *orderService) cacheOrder(order entities.Order) {
	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order", slog.Int64("id", order.ID), slog.Any("error", err))
		return
	}
	s.cache.Set(cacheKey(order.ID), data)
}

func cacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
