package response

import (
	"errors"
	"net/http"

	"visacenter/pkg/apperr"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func ParamError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    CodeParamError,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    CodeUnauthorized,
		Message: message,
	})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Code:    CodeNotFound,
		Message: message,
	})
}

func ServerError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeServerError,
		Message: message,
	})
}

// HandleError 按错误分类返回对应的 HTTP 状态码
// ValidationError -> 400, UnauthorizedError -> 401, NotFoundError -> 404, ConflictError -> 409, 其余 -> 500
func HandleError(c *gin.Context, err error) {
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		ParamError(c, validation.Message)
		return
	}

	var notFound *apperr.NotFoundError
	if errors.As(err, &notFound) {
		NotFound(c, notFound.Message)
		return
	}

	var unauthorized *apperr.UnauthorizedError
	if errors.As(err, &unauthorized) {
		Unauthorized(c, unauthorized.Message)
		return
	}

	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, Response{
			Code:    CodeConflict,
			Message: conflict.Message,
			Details: conflict.Details,
		})
		return
	}

	ServerError(c, err.Error())
}
