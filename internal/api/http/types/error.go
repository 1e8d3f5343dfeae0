// Package types HTTP 响应类型
package types

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code      string      `json:"code"`                // 错误码
	Message   string      `json:"message"`             // 错误消息
	Details   interface{} `json:"details,omitempty"`   // 详细信息
	RequestID string      `json:"requestId,omitempty"` // 请求ID
	Timestamp string      `json:"timestamp,omitempty"` // 时间戳
}

// 错误码
const (
	// 请求错误
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrInvalidAddress  = "INVALID_ADDRESS"
	ErrNotFound        = "NOT_FOUND"
	ErrSignerAbsent    = "SIGNER_ABSENT"
	ErrNotNews         = "NOT_NEWS_COLLECTION"

	// 链上错误
	ErrConnection        = "CHAIN_UNAVAILABLE"
	ErrSubmission        = "SUBMISSION_REJECTED"
	ErrTimeout           = "FINALIZATION_TIMEOUT"
	ErrDispatchFailed    = "DISPATCH_FAILED"
	ErrPartialCompletion = "PARTIAL_COMPLETION"

	// 服务器错误
	ErrInternal = "INTERNAL"
)

// NewErrorResponse 创建错误响应
func NewErrorResponse(code, message string, details interface{}) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// WithRequestID 添加请求ID
func (e *ErrorResponse) WithRequestID(requestID string) *ErrorResponse {
	e.Error.RequestID = requestID
	return e
}

// WithTimestamp 添加时间戳
func (e *ErrorResponse) WithTimestamp(timestamp string) *ErrorResponse {
	e.Error.Timestamp = timestamp
	return e
}
