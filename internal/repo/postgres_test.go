package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/repo"
	"github.com/SergeyBogomolovv/orders-crud-service/pkg/trm"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

type gateway interface {
	FindAll(ctx context.Context) ([]entities.Order, error)
	FindByID(ctx context.Context, id int64) (entities.Order, bool, error)
	Save(ctx context.Context, o entities.Order) (entities.Order, error)
	Update(ctx context.Context, o entities.Order) (entities.Order, bool, error)
	DeleteByID(ctx context.Context, id int64) error
}

func newPostgresRepo(t *testing.T) (gateway, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")
	return repo.NewPostgresRepo(db, trm.NewManager(db)), mock
}

func TestPostgresRepo_FindAll(t *testing.T) {
	t.Run("orders with products", func(t *testing.T) {
		r, mock := newPostgresRepo(t)

		mock.ExpectQuery(`SELECT id, type, date FROM orders ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "type", "date"}).
				AddRow(int64(1), "standard", testDate).
				AddRow(int64(2), "express", testDate))
		mock.ExpectQuery(`SELECT order_id, position, product FROM order_products WHERE order_id IN \(\$1,\$2\)`).
			WithArgs(int64(1), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"order_id", "position", "product"}).
				AddRow(int64(1), 0, "pen").
				AddRow(int64(1), 1, "notebook"))

		got, err := r.FindAll(context.Background())
		require.NoError(t, err)

		require.Len(t, got, 2)
		assert.Equal(t, entities.Order{ID: 1, Type: "standard", Products: []string{"pen", "notebook"}, Date: testDate}, got[0])
		assert.Equal(t, entities.Order{ID: 2, Type: "express", Products: []string{}, Date: testDate}, got[1])
	})

	t.Run("empty table", func(t *testing.T) {
		r, mock := newPostgresRepo(t)

		mock.ExpectQuery(`SELECT id, type, date FROM orders`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "type", "date"}))

		got, err := r.FindAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("db error", func(t *testing.T) {
		r, mock := newPostgresRepo(t)
		dbErr := errors.New("db error")

		mock.ExpectQuery(`SELECT id, type, date FROM orders`).WillReturnError(dbErr)

		_, err := r.FindAll(context.Background())
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestPostgresRepo_FindByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		r, mock := newPostgresRepo(t)

		mock.ExpectQuery(`SELECT id, type, date FROM orders WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "type", "date"}).
				AddRow(int64(1), "standard", testDate))
		mock.ExpectQuery(`SELECT order_id, position, product FROM order_products WHERE order_id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"order_id", "position", "product"}).
				AddRow(int64(1), 0, "pen"))

		got, ok, err := r.FindByID(context.Background(), 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entities.Order{ID: 1, Type: "standard", Products: []string{"pen"}, Date: testDate}, got)
	})

	t.Run("not found", func(t *testing.T) {
		r, mock := newPostgresRepo(t)

		mock.ExpectQuery(`SELECT id, type, date FROM orders WHERE id = \$1`).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "type", "date"}))

		_, ok, err := r.FindByID(context.Background(), 42)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPostgresRepo_Save(t *testing.T) {
	t.Run("insert assigns id", func(t *testing.T) {
		r, mock := newPostgresRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO orders \(type,date\) VALUES \(\$1,\$2\) RETURNING id`).
			WithArgs("standard", testDate).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectExec(`DELETE FROM order_products WHERE order_id = \$1`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO order_products \(order_id,position,product\) VALUES \(\$1,\$2,\$3\),\(\$4,\$5,\$6\)`).
			WithArgs(int64(1), 0, "pen", int64(1), 1, "notebook").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		got, err := r.Save(context.Background(), entities.Order{
			Type:     "standard",
			Products: []string{"pen", "notebook"},
			Date:     testDate,
		})
		require.NoError(t, err)
		assert.Equal(t, entities.Order{ID: 1, Type: "standard", Products: []string{"pen", "notebook"}, Date: testDate}, got)
	})

	t.Run("upsert with empty products", func(t *testing.T) {
		r, mock := newPostgresRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO orders \(id,type,date\) VALUES \(\$1,\$2,\$3\) ON CONFLICT \(id\) DO UPDATE`).
			WithArgs(int64(5), "express", testDate).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectExec(`DELETE FROM order_products WHERE order_id = \$1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		got, err := r.Save(context.Background(), entities.Order{
			ID:       5,
			Type:     "express",
			Products: []string{},
			Date:     testDate,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.ID)
		assert.NotNil(t, got.Products)
		assert.Empty(t, got.Products)
	})

	t.Run("rollback when products fail", func(t *testing.T) {
		r, mock := newPostgresRepo(t)
		dbErr := errors.New("db error")

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectExec(`DELETE FROM order_products`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO order_products`).
			WillReturnError(dbErr)
		mock.ExpectRollback()

		_, err := r.Save(context.Background(), entities.Order{
			Type:     "standard",
			Products: []string{"pen"},
			Date:     testDate,
		})
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestPostgresRepo_Update(t *testing.T) {
	order := entities.Order{ID: 5, Type: "express", Products: []string{"pen"}, Date: testDate}

	t.Run("existing row", func(t *testing.T) {
		r, mock := newPostgresRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE orders SET type = \$1, date = \$2 WHERE id = \$3 RETURNING id`).
			WithArgs("express", testDate, int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectExec(`DELETE FROM order_products WHERE order_id = \$1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`INSERT INTO order_products \(order_id,position,product\) VALUES \(\$1,\$2,\$3\)`).
			WithArgs(int64(5), 0, "pen").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, ok, err := r.Update(context.Background(), order)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, order, got)
	})

	t.Run("missing row is not inserted", func(t *testing.T) {
		r, mock := newPostgresRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE orders SET type = \$1, date = \$2 WHERE id = \$3 RETURNING id`).
			WithArgs("express", testDate, int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectCommit()

		got, ok, err := r.Update(context.Background(), order)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, entities.Order{}, got)
	})

	t.Run("db error rolls back", func(t *testing.T) {
		r, mock := newPostgresRepo(t)
		dbErr := errors.New("db error")

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE orders`).WillReturnError(dbErr)
		mock.ExpectRollback()

		_, ok, err := r.Update(context.Background(), order)
		assert.ErrorIs(t, err, dbErr)
		assert.False(t, ok)
	})
}

func TestPostgresRepo_DeleteByID(t *testing.T) {
	r, mock := newPostgresRepo(t)

	mock.ExpectExec(`DELETE FROM orders WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, r.DeleteByID(context.Background(), 3))
}
