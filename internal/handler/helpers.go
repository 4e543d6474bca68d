package handler

import (
	"net/http"
	"reflect"

	"lanepos/internal/apierror"
	"lanepos/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondErr maps a domain error kind to its HTTP status and writes the
// standard error envelope.
func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		status, msg = http.StatusNotFound, err.Error()
	case apperr.InvalidInput:
		status, msg = http.StatusBadRequest, err.Error()
	case apperr.InvalidState:
		status, msg = http.StatusConflict, err.Error()
	case apperr.InsufficientPayment:
		status, msg = http.StatusBadRequest, err.Error()
	default:
		log.Error().
			Str("path", c.FullPath()).
			Err(err).
			Msg("internal error")
	}
	c.JSON(status, apierror.New(msg))
}
