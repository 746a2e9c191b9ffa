package repo

import (
	"time"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
)

type Order struct {
	ID   int64     `db:"id"`
	Type string    `db:"type"`
	Date time.Time `db:"date"`
}

type Product struct {
	OrderID  int64  `db:"order_id"`
	Position int    `db:"position"`
	Name     string `db:"product"`
}

// OrderToEntity собирает заказ из строки orders и его товаров,
// товары должны быть отсортированы по position.
func OrderToEntity(o Order, products []Product) entities.Order {
	order := entities.Order{
		ID:       o.ID,
		Type:     o.Type,
		Date:     entities.NewDate(o.Date),
		Products: make([]string, 0, len(products)),
	}

	for _, p := range products {
		order.Products = append(order.Products, p.Name)
	}

	return order
}
