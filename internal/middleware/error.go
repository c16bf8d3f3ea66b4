package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/logger"
)

// ErrorHandler turns the last error attached with c.Error into the JSON error
// envelope. AppErrors keep their code; validation failures become
// INVALID_INPUT; anything else is logged and answered as INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := logger.Named("http")

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Internal != nil {
				log.Errorw("app error",
					"request_id", c.GetString(RequestIDKey),
					"code", appErr.Code,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
				)
			}
			abortWithError(c, appErr)
			return
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, verrs.Error()))
			return
		}

		log.Errorw("unexpected error",
			"request_id", c.GetString(RequestIDKey),
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		abortWithError(c, apperrors.ErrInternalServer)
	}
}
