// errors стандартизирует ответы об ошибках HTTP-слоя api-gateway.
// На вход — ошибка (gRPC-статус от auth-service или локальная *Error),
// на выход — HTTP-статус и тело {error:{code,message,request_id}}.
//
// Если у gRPC-статуса есть google.rpc.ErrorInfo домена auth.eshop,
// code — это Reason в нижнем регистре (invalid_credentials, expired_token, ...).
// Иначе code выводится из gRPC-кода.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/eshop-auth/internal/pkg/log"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

// StatusClientClosedRequest — нестандартный код "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error — ошибка, сформированная самим gateway (guard, rate limit, парсинг).
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

var (
	ErrBadRequest   = &Error{Status: http.StatusBadRequest, Code: "invalid_argument", Message: "invalid request body"}
	ErrMissingToken = &Error{Status: http.StatusUnauthorized, Code: "invalid_token", Message: "missing bearer token"}
	ErrInvalidToken = &Error{Status: http.StatusUnauthorized, Code: "invalid_token", Message: "invalid token"}
	ErrExpiredToken = &Error{Status: http.StatusUnauthorized, Code: "expired_token", Message: "token expired"}
	ErrForbidden    = &Error{Status: http.StatusForbidden, Code: "forbidden", Message: "insufficient role"}
	ErrRateLimited  = &Error{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
	ErrUnavailable  = &Error{Status: http.StatusServiceUnavailable, Code: "upstream_unavailable", Message: "auth service unavailable"}
	ErrInternal     = &Error{Status: http.StatusInternalServerError, Code: "internal", Message: "internal error"}
)

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
// err == nil и не-gRPC ошибки дают 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	var local *Error
	if errors.As(err, &local) {
		return local.Status, ErrorResponse{Error: APIError{Code: local.Code, Message: local.Message}}
	}

	st, ok := status.FromError(err)
	if err == nil || !ok {
		return ErrInternal.Status, ErrorResponse{Error: APIError{Code: ErrInternal.Code, Message: ErrInternal.Message}}
	}

	httpStatus, code, msg := baseFromGRPC(st.Code())

	if reason := authv1.ReasonOf(err); reason != "" {
		code = strings.ToLower(reason)
		if httpStatus != http.StatusInternalServerError && st.Message() != "" {
			msg = st.Message()
		}
	}

	return httpStatus, ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

// WriteError пишет статус и тело ошибки; request_id берётся из контекста
// запроса или заголовка X-Request-Id.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	httpStatus, resp := ToHTTP(err)

	rid := log.RequestID(r.Context())
	if rid == "" {
		rid = r.Header.Get("X-Request-Id")
	}
	resp.Error.RequestID = rid

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromGRPC — базовый маппинг gRPC -> HTTP/FE-код/сообщение.
func baseFromGRPC(c codes.Code) (int, string, string) {
	switch c {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case codes.NotFound:
		return http.StatusNotFound, "not_found", "not found"
	case codes.AlreadyExists:
		return http.StatusConflict, "already_exists", "already exists"
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case codes.PermissionDenied:
		return http.StatusForbidden, "permission_denied", "permission denied"
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, "resource_exhausted", "resource exhausted"
	case codes.Canceled:
		return StatusClientClosedRequest, "canceled", "canceled"
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case codes.Unavailable:
		return http.StatusServiceUnavailable, "upstream_unavailable", "service unavailable"
	case codes.Unimplemented:
		return http.StatusNotImplemented, "unimplemented", "unimplemented"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
