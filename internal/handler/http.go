package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SergeyBogomolovv/orders-crud-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-crud-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type OrderService interface {
	ListOrders(ctx context.Context) ([]entities.Order, error)
	GetOrderByID(ctx context.Context, id int64) (entities.Order, bool, error)
	CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error)
	UpdateOrder(ctx context.Context, id int64, order entities.Order) (entities.Order, bool, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: newValidator(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrderByID)
		r.Put("/{id}", h.UpdateOrder)
		r.Delete("/{id}", h.DeleteOrder)
	})
}

// ListOrders возвращает все заказы.
// @Summary      Получить все заказы
// @Tags         orders
// @Produce      json
// @Success      200  {array}   Order
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Router       /api/orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.svc.ListOrders(ctx)
	if err != nil {
		h.internalError(ctx, w, "failed to list orders", err)
		return
	}

	utils.WriteJSON(w, OrdersEntityToJSON(orders), http.StatusOK)
}

// GetOrderByID возвращает заказ по ID.
// @Summary      Получить заказ по ID
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Идентификатор заказа"
// @Success      200  {object}  Order
// @Failure      400  {object}  utils.ErrorResponse "Некорректный ID"
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Router       /api/orders/{id} [get]
func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.WriteError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, found, err := h.svc.GetOrderByID(ctx, id)
	if err != nil {
		h.internalError(ctx, w, "failed to get order", err, slog.Int64("id", id))
		return
	}
	if !found {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// CreateOrder создает заказ.
// @Summary      Создать заказ
// @Description  Переданный id игнорируется, идентификатор назначает сервер
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order  body      Order  true  "Заказ"
// @Success      201    {object}  Order
// @Failure      400    {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      500    {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Router       /api/orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, ok := h.readOrder(w, r)
	if !ok {
		return
	}

	created, err := h.svc.CreateOrder(ctx, order)
	if err != nil {
		h.internalError(ctx, w, "failed to create order", err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(created), http.StatusCreated)
}

// UpdateOrder заменяет тип, товары и дату заказа.
// @Summary      Обновить заказ
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id     path      int    true  "Идентификатор заказа"
// @Param        order  body      Order  true  "Новые данные заказа"
// @Success      200    {object}  Order
// @Failure      400    {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      404    {object}  utils.ErrorResponse "Заказ не найден"
// @Failure      500    {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Router       /api/orders/{id} [put]
func (h *HTTPHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.WriteError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, ok := h.readOrder(w, r)
	if !ok {
		return
	}

	updated, found, err := h.svc.UpdateOrder(ctx, id, order)
	if err != nil {
		h.internalError(ctx, w, "failed to update order", err, slog.Int64("id", id))
		return
	}
	if !found {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(updated), http.StatusOK)
}

// DeleteOrder удаляет заказ. Удаление несуществующего заказа не ошибка.
// @Summary      Удалить заказ
// @Tags         orders
// @Param        id   path  int  true  "Идентификатор заказа"
// @Success      204
// @Failure      400  {object}  utils.ErrorResponse "Некорректный ID"
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Router       /api/orders/{id} [delete]
func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.WriteError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteOrder(ctx, id); err != nil {
		h.internalError(ctx, w, "failed to delete order", err, slog.Int64("id", id))
		return
	}

	utils.WriteNoContent(w)
}

// readOrder пишет 400 и возвращает false, если тело не прошло разбор или валидацию.
func (h *HTTPHandler) readOrder(w http.ResponseWriter, r *http.Request) (entities.Order, bool) {
	var req Order
	if err := utils.DecodeBody(w, r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return entities.Order{}, false
	}

	order, err := validateOrder(h.validate, req)
	if err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			utils.WriteValidationError(w, ve)
		} else {
			utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		}
		return entities.Order{}, false
	}

	return order, true
}

func (h *HTTPHandler) internalError(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	h.logger.ErrorContext(ctx, msg, append(attrs, slog.Any("error", err))...)
	utils.WriteError(w, "internal server error", http.StatusInternalServerError)
}
