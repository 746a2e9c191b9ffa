package handler

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const dateLayout = time.DateOnly

// Order представляет заказ
type Order struct {
	// Присваивается сервером, в запросах игнорируется
	ID       *int64   `json:"id" example:"1" extensions:"x-nullable"`
	Type     string   `json:"type" validate:"notblank" example:"standard"`
	Products []string `json:"products" validate:"required" example:"pen,notebook"`
	Date     string   `json:"date" validate:"required,datetime=2006-01-02" example:"2024-01-10"`
}

func OrderEntityToJSON(o entities.Order) Order {
	id := o.ID
	return Order{
		ID:       &id,
		Type:     o.Type,
		Products: append(make([]string, 0, len(o.Products)), o.Products...),
		Date:     o.Date.Format(dateLayout),
	}
}

func OrdersEntityToJSON(orders []entities.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderEntityToJSON(o))
	}
	return result
}

// OrderJSONToEntity ожидает уже провалидированный заказ.
func OrderJSONToEntity(o Order) (entities.Order, error) {
	date, err := time.Parse(dateLayout, o.Date)
	if err != nil {
		return entities.Order{}, fmt.Errorf("%w: bad date: %w", entities.ErrInvalidOrder, err)
	}

	order := entities.Order{
		Type:     o.Type,
		Products: append(make([]string, 0, len(o.Products)), o.Products...),
		Date:     entities.NewDate(date),
	}
	if o.ID != nil {
		order.ID = *o.ID
	}
	return order, nil
}

// decodeOrder разбирает и валидирует заказ из JSON.
// Ошибки валидации оборачивают validator.ValidationErrors.
func decodeOrder(validate *validator.Validate, data []byte) (entities.Order, error) {
	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return entities.Order{}, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return validateOrder(validate, order)
}

func validateOrder(validate *validator.Validate, order Order) (entities.Order, error) {
	if err := validate.Struct(order); err != nil {
		return entities.Order{}, fmt.Errorf("%w: %w", entities.ErrInvalidOrder, err)
	}
	return OrderJSONToEntity(order)
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return validate
}
