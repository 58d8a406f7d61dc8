package rest

import (
	"zapas-be/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindJSON decodes and validates the request body into obj. The raw bytes
// are cached on the context so decode failures can be located in them.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindBodyWith(obj, binding.JSON)
	if err == nil {
		return nil
	}

	var body []byte
	if raw, ok := c.Get(gin.BodyBytesKey); ok {
		body, _ = raw.([]byte)
	}
	return validation.FromBindError(err, body)
}
