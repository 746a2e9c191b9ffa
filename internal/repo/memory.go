package repo

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
)

// memoryRepo хранит заказы в памяти процесса, данные теряются при перезапуске.
type memoryRepo struct {
	mu     sync.RWMutex
	orders map[int64]entities.Order
	lastID int64
}

func NewMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders: make(map[int64]entities.Order),
	}
}

func (r *memoryRepo) FindAll(_ context.Context) ([]entities.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entities.Order, 0, len(r.orders))
	for _, o := range r.orders {
		result = append(result, cloneOrder(o))
	}
	slices.SortFunc(result, func(a, b entities.Order) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return result, nil
}

func (r *memoryRepo) FindByID(_ context.Context, id int64) (entities.Order, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return entities.Order{}, false, nil
	}
	return cloneOrder(o), true, nil
}

func (r *memoryRepo) Save(_ context.Context, o entities.Order) (entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.ID == 0 {
		r.lastID++
		o.ID = r.lastID
	} else if o.ID > r.lastID {
		r.lastID = o.ID
	}

	o = cloneOrder(o)
	r.orders[o.ID] = o

	return cloneOrder(o), nil
}

func (r *memoryRepo) Update(_ context.Context, o entities.Order) (entities.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; !ok {
		return entities.Order{}, false, nil
	}

	o = cloneOrder(o)
	r.orders[o.ID] = o

	return cloneOrder(o), true, nil
}

func (r *memoryRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.orders, id)
	return nil
}

func cloneOrder(o entities.Order) entities.Order {
	o.Products = append(make([]string, 0, len(o.Products)), o.Products...)
	o.Date = entities.NewDate(o.Date)
	return o
}
