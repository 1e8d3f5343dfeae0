package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/newsanchor/client/core/wallet"
	"github.com/weisyn/newsanchor/internal/api/http/types"
	"github.com/weisyn/newsanchor/internal/core/address"
	"github.com/weisyn/newsanchor/internal/core/article"
	"github.com/weisyn/newsanchor/internal/core/chain"
	"github.com/weisyn/newsanchor/internal/core/orchestrator"
	logiface "github.com/weisyn/newsanchor/pkg/interfaces/infrastructure/log"
)

// ErrInvalidInput 请求参数无法解析
var ErrInvalidInput = errors.New("invalid input")

// classification 按顺序匹配；部分完成需要先于其包装的链上错误
var classification = []struct {
	target error
	status int
	code   string
}{
	{orchestrator.ErrPartialCompletion, http.StatusBadGateway, types.ErrPartialCompletion},
	{ErrInvalidInput, http.StatusBadRequest, types.ErrInvalidArgument},
	{article.ErrInvalidRequest, http.StatusBadRequest, types.ErrInvalidArgument},
	{orchestrator.ErrMissingItem, http.StatusBadRequest, types.ErrInvalidArgument},
	{address.ErrInvalidAddress, http.StatusBadRequest, types.ErrInvalidAddress},
	{orchestrator.ErrUnknownFlow, http.StatusNotFound, types.ErrNotFound},
	{orchestrator.ErrFlowNotFound, http.StatusNotFound, types.ErrNotFound},
	{orchestrator.ErrNotNewsCollection, http.StatusUnprocessableEntity, types.ErrNotNews},
	{chain.ErrSignerAbsent, http.StatusPreconditionFailed, types.ErrSignerAbsent},
	{wallet.ErrUserRejected, http.StatusBadGateway, types.ErrSubmission},
	{chain.ErrSubmission, http.StatusBadGateway, types.ErrSubmission},
	{chain.ErrDispatchFailed, http.StatusBadGateway, types.ErrDispatchFailed},
	{chain.ErrTimeout, http.StatusGatewayTimeout, types.ErrTimeout},
	{chain.ErrConnection, http.StatusServiceUnavailable, types.ErrConnection},
}

// Classify 把领域错误映射为 HTTP 状态与错误码
func Classify(err error) (int, string) {
	for _, c := range classification {
		if errors.Is(err, c.target) {
			return c.status, c.code
		}
	}
	return http.StatusInternalServerError, types.ErrInternal
}

// ErrorHandler 处理器通过 c.Error 上报错误，由此统一写出错误响应
func ErrorHandler(logger logiface.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, code := Classify(err)
		if status >= http.StatusInternalServerError {
			logger.Errorf("HTTP 错误: path=%s code=%s err=%v", c.Request.URL.Path, code, err)
		}
		resp := types.NewErrorResponse(code, err.Error(), nil).
			WithRequestID(GetRequestID(c)).
			WithTimestamp(time.Now().UTC().Format(time.RFC3339))
		c.AbortWithStatusJSON(status, resp)
	}
}
