package authv1

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// ErrorDomain — домен google.rpc.ErrorInfo в ошибках сервиса.
const ErrorDomain = "auth.eshop"

// Причины отказа (google.rpc.ErrorInfo.Reason и VerifyResponse.Reason).
const (
	ReasonInvalidArgument     = "INVALID_ARGUMENT"
	ReasonDuplicateEmail      = "DUPLICATE_EMAIL"
	ReasonInvalidCredentials  = "INVALID_CREDENTIALS"
	ReasonInvalidToken        = "INVALID_TOKEN"
	ReasonExpiredToken        = "EXPIRED_TOKEN"
	ReasonTokenReuseDetected  = "TOKEN_REUSE_DETECTED"
	ReasonUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ReasonInternal            = "INTERNAL"
)

// ReasonOf извлекает ErrorInfo.Reason домена ErrorDomain из gRPC-ошибки.
// Пустая строка — деталей нет или ошибка не gRPC-статус.
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}

	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return info.GetReason()
		}
	}

	return ""
}
