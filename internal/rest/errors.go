package rest

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"zapas-be/internal/apperror"
	"zapas-be/internal/logger"
	"zapas-be/internal/order"
	"zapas-be/internal/product"
	"zapas-be/internal/user"
	"zapas-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errRouteNotFound    = apperror.NotFound("route not found")
	errMethodNotAllowed = apperror.MethodNotAllowed()
	errUnauthorized     = apperror.Unauthorized("unauthorized")
)

// abort records err for ErrorHandler and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler is the single place where errors become HTTP responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := translate(err)

		if appErr.Kind == apperror.KindInternal {
			logger.FromCtx(c.Request.Context()).Error("unhandled error",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
				zap.Stack("stack"),
			)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.Status(), apperror.NewEnvelope(appErr, c.Request.URL.RequestURI()))
	}
}

// Recovery turns a panic into the generic 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		logger.FromCtx(c.Request.Context()).Error("panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", rec),
			zap.Stack("stack"),
		)

		appErr := apperror.Internal(fmt.Errorf("panic: %v", rec))
		c.AbortWithStatusJSON(appErr.Status(), apperror.NewEnvelope(appErr, c.Request.URL.RequestURI()))
	})
}

func translate(err error) *apperror.Error {
	var (
		appErr   *apperror.Error
		missing  *order.MissingProductsError
		inactive *order.InactiveProductsError
	)

	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &missing), errors.As(err, &inactive):
		return apperror.BadRequest(err.Error(), err)
	case errors.Is(err, order.ErrQuantityOutOfRange), errors.Is(err, order.ErrTotalOutOfRange):
		return apperror.BadRequest(err.Error(), err)
	case errors.Is(err, user.ErrPasswordTooLong):
		return apperror.Validation([]apperror.FieldError{{
			Path:    "password",
			Message: "must be at most " + strconv.Itoa(user.MaxPasswordBytes) + " bytes long",
		}})
	case errors.Is(err, product.ErrProductNotFound):
		return apperror.NotFound("product not found")
	case errors.Is(err, order.ErrOrderNotFound):
		return apperror.NotFound("order not found")
	case errors.Is(err, order.ErrIdempotencyKeyReused), errors.Is(err, order.ErrDuplicateIdempotencyKey):
		return apperror.Conflict("idempotency key already used", err)
	case errors.Is(err, user.ErrEmailExists):
		return apperror.Conflict("email already registered", err)
	case errors.Is(err, user.ErrInvalidCredentials):
		return apperror.Unauthorized("invalid credentials")
	case errors.Is(err, user.ErrUserNotFound):
		return apperror.Unauthorized("user not found")
	default:
		return apperror.Internal(err)
	}
}

// RequireAuth rejects requests that the passive auth middleware did not
// attach a user to.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIDFromContext(c.Request.Context()); !ok {
			abort(c, errUnauthorized)
			return
		}
		c.Next()
	}
}
