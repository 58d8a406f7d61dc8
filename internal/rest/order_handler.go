package rest

import (
	"net/http"
	"strconv"
	"strings"

	"zapas-be/internal/apperror"
	"zapas-be/internal/order"
	"zapas-be/internal/utils"
	"zapas-be/internal/validation"

	"github.com/gin-gonic/gin"
)

const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
)

type OrderHandler struct {
	orders order.Service
}

func (h *OrderHandler) Create(c *gin.Context) {
	var in order.CreateOrderInput
	if err := bindJSON(c, &in); err != nil {
		abort(c, err)
		return
	}

	in.IdempotencyKey = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(in.IdempotencyKey) > order.MaxIdempotencyKeyLength {
		abort(c, apperror.Validation([]apperror.FieldError{{
			Path:    IdempotencyKeyHeader,
			Message: "must be at most " + strconv.Itoa(order.MaxIdempotencyKeyLength) + " characters long",
		}}))
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	o, replayed, err := h.orders.CreateOrder(ctx, userID, in)
	if err != nil {
		abort(c, err)
		return
	}

	if replayed {
		c.Header(IdempotentReplayedHeader, "true")
		c.JSON(http.StatusOK, dataResponse{Data: o})
		return
	}
	c.JSON(http.StatusCreated, dataResponse{Data: o})
}

func (h *OrderHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if err := validation.Default.Var("id", id, "uuid"); err != nil {
		abort(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	o, err := h.orders.GetOrderByID(ctx, userID, id)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: o})
}

func (h *OrderHandler) List(c *gin.Context) {
	q := validation.NewQuery(c.Request.URL.Query())
	opts := order.ListOptions{
		Page:  q.Int("page", order.DefaultPage),
		Limit: q.Int("limit", order.DefaultLimit),
	}
	if err := q.Check(&opts); err != nil {
		abort(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	res, err := h.orders.GetUserOrders(ctx, userID, opts)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse{
		Data: res.Orders,
		Meta: Meta{Page: res.Page, Limit: res.Limit, Total: res.Total, TotalPages: res.TotalPages},
	})
}
