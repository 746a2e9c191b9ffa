package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/service"
	mocks "github.com/SergeyBogomolovv/orders-crud-service/internal/service/mocks"
	txMocks "github.com/SergeyBogomolovv/orders-crud-service/pkg/trm/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func passThroughTx(tx *txMocks.MockManager) {
	tx.EXPECT().
		Do(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, cb func(ctx context.Context) error) error {
			return cb(ctx)
		}).Maybe()
}

func TestOrderService_ListOrders(t *testing.T) {
	dbError := errors.New("db error")
	orders := []entities.Order{
		{ID: 1, Type: "standard", Products: []string{"pen"}, Date: testDate},
		{ID: 2, Type: "express", Products: []string{}, Date: testDate},
	}

	testCases := []struct {
		name         string
		mockBehavior func(orderRepo *mocks.MockOrderRepo)
		want         []entities.Order
		wantErr      error
	}{
		{
			name: "OK",
			mockBehavior: func(orderRepo *mocks.MockOrderRepo) {
				orderRepo.EXPECT().FindAll(mock.Anything).Return(orders, nil).Once()
			},
			want: orders,
		},
		{
			name: "repo fails",
			mockBehavior: func(orderRepo *mocks.MockOrderRepo) {
				orderRepo.EXPECT().FindAll(mock.Anything).Return(nil, dbError).Once()
			},
			wantErr: dbError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepo(t)
			cache := mocks.NewMockCache(t)
			tx := txMocks.NewMockManager(t)
			tc.mockBehavior(orderRepo)

			svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)

			got, err := svc.ListOrders(context.Background())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrderService_GetOrderByID(t *testing.T) {
	type MockBehavior func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache)

	validOrder := entities.Order{ID: 1, Type: "standard", Products: []string{"pen"}, Date: testDate}
	validData, err := validOrder.Marshal()
	require.NoError(t, err)

	dbError := errors.New("db error")

	testCases := []struct {
		name         string
		id           int64
		mockBehavior MockBehavior
		want         entities.Order
		wantFound    bool
		wantErr      error
	}{
		{
			name: "success from cache",
			id:   1,
			mockBehavior: func(_ *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("1").Return(validData, true).Once()
			},
			want:      validOrder,
			wantFound: true,
		},
		{
			name: "broken cache entry falls back to repo",
			id:   1,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("1").Return([]byte("broken"), true).Once()
				cache.EXPECT().Delete("1").Return().Once()
				cache.EXPECT().Version().Return(uint64(1)).Once()
				orderRepo.EXPECT().FindByID(mock.Anything, int64(1)).Return(validOrder, true, nil).Once()
				cache.EXPECT().SetIfVersion("1", validData, uint64(1)).Return(true).Once()
			},
			want:      validOrder,
			wantFound: true,
		},
		{
			name: "success from repo and set to cache",
			id:   1,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("1").Return(nil, false).Once()
				cache.EXPECT().Version().Return(uint64(3)).Once()
				orderRepo.EXPECT().FindByID(mock.Anything, int64(1)).Return(validOrder, true, nil).Once()
				cache.EXPECT().SetIfVersion("1", validData, uint64(3)).Return(true).Once()
			},
			want:      validOrder,
			wantFound: true,
		},
		{
			name: "stale read is returned but not cached",
			id:   1,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("1").Return(nil, false).Once()
				cache.EXPECT().Version().Return(uint64(3)).Once()
				orderRepo.EXPECT().FindByID(mock.Anything, int64(1)).Return(validOrder, true, nil).Once()
				cache.EXPECT().SetIfVersion("1", validData, uint64(3)).Return(false).Once()
			},
			want:      validOrder,
			wantFound: true,
		},
		{
			name: "not found in repo",
			id:   404,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("404").Return(nil, false).Once()
				cache.EXPECT().Version().Return(uint64(0)).Once()
				orderRepo.EXPECT().FindByID(mock.Anything, int64(404)).Return(entities.Order{}, false, nil).Once()
			},
			wantFound: false,
		},
		{
			name: "repo fails",
			id:   1,
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				cache.EXPECT().Get("1").Return(nil, false).Once()
				cache.EXPECT().Version().Return(uint64(0)).Once()
				orderRepo.EXPECT().FindByID(mock.Anything, int64(1)).Return(entities.Order{}, false, dbError).Once()
			},
			wantErr: dbError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepo(t)
			cache := mocks.NewMockCache(t)
			tx := txMocks.NewMockManager(t)
			tc.mockBehavior(orderRepo, cache)

			svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)

			got, found, err := svc.GetOrderByID(context.Background(), tc.id)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantFound, found)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	dbError := errors.New("db error")
	input := entities.Order{ID: 99, Type: "standard", Products: []string{"pen", "notebook"}, Date: testDate}

	testCases := []struct {
		name         string
		mockBehavior func(orderRepo *mocks.MockOrderRepo)
		want         entities.Order
		wantErr      error
	}{
		{
			name: "client id is ignored",
			mockBehavior: func(orderRepo *mocks.MockOrderRepo) {
				toSave := input
				toSave.ID = 0
				saved := input
				saved.ID = 1
				orderRepo.EXPECT().Save(mock.Anything, toSave).Return(saved, nil).Once()
			},
			want: entities.Order{ID: 1, Type: "standard", Products: []string{"pen", "notebook"}, Date: testDate},
		},
		{
			name: "repo fails",
			mockBehavior: func(orderRepo *mocks.MockOrderRepo) {
				orderRepo.EXPECT().Save(mock.Anything, mock.Anything).Return(entities.Order{}, dbError).Once()
			},
			wantErr: dbError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepo(t)
			cache := mocks.NewMockCache(t)
			tx := txMocks.NewMockManager(t)
			tc.mockBehavior(orderRepo)

			svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)

			got, err := svc.CreateOrder(context.Background(), input)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrderService_UpdateOrder(t *testing.T) {
	type MockBehavior func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache)

	dbError := errors.New("db error")
	patch := entities.Order{ID: 77, Type: "express", Products: []string{"pen"}, Date: testDate.AddDate(0, 0, 1)}
	updated := entities.Order{ID: 1, Type: "express", Products: []string{"pen"}, Date: testDate.AddDate(0, 0, 1)}

	testCases := []struct {
		name         string
		mockBehavior MockBehavior
		want         entities.Order
		wantFound    bool
		wantErr      error
	}{
		{
			name: "replaces fields and keeps id",
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, cache *mocks.MockCache) {
				orderRepo.EXPECT().Update(mock.Anything, updated).Return(updated, true, nil).Once()
				cache.EXPECT().Delete("1").Return().Once()
			},
			want:      updated,
			wantFound: true,
		},
		{
			name: "absent order is not created",
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, _ *mocks.MockCache) {
				orderRepo.EXPECT().Update(mock.Anything, updated).Return(entities.Order{}, false, nil).Once()
			},
			wantFound: false,
		},
		{
			name: "update fails",
			mockBehavior: func(orderRepo *mocks.MockOrderRepo, _ *mocks.MockCache) {
				orderRepo.EXPECT().Update(mock.Anything, mock.Anything).Return(entities.Order{}, false, dbError).Once()
			},
			wantErr: dbError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orderRepo := mocks.NewMockOrderRepo(t)
			cache := mocks.NewMockCache(t)
			tx := txMocks.NewMockManager(t)
			passThroughTx(tx)
			tc.mockBehavior(orderRepo, cache)

			svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)

			got, found, err := svc.UpdateOrder(context.Background(), 1, patch)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantFound, found)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrderService_DeleteOrder(t *testing.T) {
	dbError := errors.New("db error")

	t.Run("OK evicts cache", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepo(t)
		cache := mocks.NewMockCache(t)
		tx := txMocks.NewMockManager(t)

		orderRepo.EXPECT().DeleteByID(mock.Anything, int64(5)).Return(nil).Once()
		cache.EXPECT().Delete("5").Return().Once()

		svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)
		assert.NoError(t, svc.DeleteOrder(context.Background(), 5))
	})

	t.Run("repo fails", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepo(t)
		cache := mocks.NewMockCache(t)
		tx := txMocks.NewMockManager(t)

		orderRepo.EXPECT().DeleteByID(mock.Anything, int64(5)).Return(dbError).Once()

		svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)
		assert.ErrorIs(t, svc.DeleteOrder(context.Background(), 5), dbError)
	})
}

func TestOrderService_WarmUpCache(t *testing.T) {
	orders := []entities.Order{
		{ID: 1, Type: "standard", Products: []string{}, Date: testDate},
		{ID: 2, Type: "standard", Products: []string{}, Date: testDate},
		{ID: 3, Type: "express", Products: []string{"pen"}, Date: testDate},
	}

	orderRepo := mocks.NewMockOrderRepo(t)
	cache := mocks.NewMockCache(t)
	tx := txMocks.NewMockManager(t)

	orderRepo.EXPECT().FindAll(mock.Anything).Return(orders, nil).Once()
	cache.EXPECT().Set("2", mock.Anything).Return().Once()
	cache.EXPECT().Set("3", mock.Anything).Return().Once()

	svc := service.NewOrderService(newLogger(), tx, orderRepo, cache)
	assert.NoError(t, svc.WarmUpCache(context.Background(), 2))
}
