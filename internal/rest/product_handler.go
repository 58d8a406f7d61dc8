package rest

import (
	"net/http"

	"zapas-be/internal/product"
	"zapas-be/internal/validation"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	products product.Service
}

func (h *ProductHandler) List(c *gin.Context) {
	q := validation.NewQuery(c.Request.URL.Query())
	opts := product.ListOptions{
		Page:     q.Int("page", product.DefaultPage),
		Limit:    q.Int("limit", product.DefaultLimit),
		Category: q.String("category"),
		Brand:    q.String("brand"),
		Size:     q.String("size"),
		Color:    q.String("color"),
		Search:   q.String("search"),
		MinPrice: q.Decimal("minPrice"),
		MaxPrice: q.Decimal("maxPrice"),
	}
	if err := q.Check(&opts); err != nil {
		abort(c, err)
		return
	}

	res, err := h.products.List(c.Request.Context(), opts)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse{
		Data: res.Items,
		Meta: Meta{Page: res.Page, Limit: res.Limit, Total: res.Total, TotalPages: res.TotalPages},
	})
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if err := validation.Default.Var("id", id, "uuid"); err != nil {
		abort(c, err)
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: p})
}

func (h *ProductHandler) GetBySlug(c *gin.Context) {
	p, err := h.products.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, dataResponse{Data: p})
}
