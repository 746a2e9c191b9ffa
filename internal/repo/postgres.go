package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-crud-service/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var (
	orderColumns   = []string{"id", "type", "date"}
	productColumns = []string{"order_id", "position", "product"}
)

type postgresRepo struct {
	db        *sqlx.DB
	txManager trm.Manager
	qb        sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB, txManager trm.Manager) *postgresRepo {
	return &postgresRepo{
		db:        db,
		txManager: txManager,
		qb:        sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *postgresRepo) FindAll(ctx context.Context) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("id").
		MustSql()

	var orders []Order
	if err := sqlx.SelectContext(ctx, trm.Querier(ctx, r.db), &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]int64, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}

	products, err := r.selectProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	productsMap := make(map[int64][]Product, len(orders))
	for _, p := range products {
		productsMap[p.OrderID] = append(productsMap[p.OrderID], p)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(order, productsMap[order.ID]))
	}

	return result, nil
}

func (r *postgresRepo) FindByID(ctx context.Context, id int64) (entities.Order, bool, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		MustSql()

	var order Order
	err := sqlx.GetContext(ctx, trm.Querier(ctx, r.db), &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, false, nil
	}
	if err != nil {
		return entities.Order{}, false, fmt.Errorf("failed to get order: %w", err)
	}

	products, err := r.selectProducts(ctx, id)
	if err != nil {
		return entities.Order{}, false, err
	}

	return OrderToEntity(order, products), true, nil
}

// Save вставляет заказ без ID или перезаписывает существующий по ID.
// Список товаров заменяется целиком.
func (r *postgresRepo) Save(ctx context.Context, o entities.Order) (entities.Order, error) {
	err := r.txManager.Do(ctx, func(ctx context.Context) error {
		var q sq.InsertBuilder
		if o.ID == 0 {
			q = r.qb.Insert("orders").
				Columns("type", "date").
				Values(o.Type, o.Date).
				Suffix("RETURNING id")
		} else {
			q = r.qb.Insert("orders").
				Columns(orderColumns...).
				Values(o.ID, o.Type, o.Date).
				Suffix("ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type, date = EXCLUDED.date RETURNING id")
		}
		query, args := q.MustSql()

		if err := sqlx.GetContext(ctx, trm.Querier(ctx, r.db), &o.ID, query, args...); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		return r.replaceProducts(ctx, o.ID, o.Products)
	})
	if err != nil {
		return entities.Order{}, err
	}

	o.Products = append(make([]string, 0, len(o.Products)), o.Products...)
	o.Date = entities.NewDate(o.Date)
	return o, nil
}

// Update перезаписывает тип, дату и товары заказа, только если строка существует.
// Конкурентный DELETE либо ждет блокировки строки, либо уже удалил ее, и тогда
// UPDATE не находит строк.
func (r *postgresRepo) Update(ctx context.Context, o entities.Order) (entities.Order, bool, error) {
	var found bool
	err := r.txManager.Do(ctx, func(ctx context.Context) error {
		query, args := r.qb.Update("orders").
			Set("type", o.Type).
			Set("date", o.Date).
			Where(sq.Eq{"id": o.ID}).
			Suffix("RETURNING id").
			MustSql()

		err := sqlx.GetContext(ctx, trm.Querier(ctx, r.db), &o.ID, query, args...)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		found = true

		return r.replaceProducts(ctx, o.ID, o.Products)
	})
	if err != nil {
		return entities.Order{}, false, err
	}
	if !found {
		return entities.Order{}, false, nil
	}

	o.Products = append(make([]string, 0, len(o.Products)), o.Products...)
	o.Date = entities.NewDate(o.Date)
	return o, true, nil
}

func (r *postgresRepo) DeleteByID(ctx context.Context, id int64) error {
	// товары удаляются каскадно
	query, args := r.qb.Delete("orders").
		Where(sq.Eq{"id": id}).
		MustSql()

	if _, err := trm.Querier(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// selectProducts принимает один id или срез id.
func (r *postgresRepo) selectProducts(ctx context.Context, orderIDs any) ([]Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("order_products").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("order_id", "position").
		MustSql()

	var products []Product
	if err := sqlx.SelectContext(ctx, trm.Querier(ctx, r.db), &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	return products, nil
}

func (r *postgresRepo) replaceProducts(ctx context.Context, orderID int64, products []string) error {
	query, args := r.qb.Delete("order_products").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	if _, err := trm.Querier(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}

	if len(products) == 0 {
		return nil
	}

	q := r.qb.Insert("order_products").Columns(productColumns...)
	for i, p := range products {
		q = q.Values(orderID, i, p)
	}

	query, args = q.MustSql()
	if _, err := trm.Querier(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	return nil
}
