package grpc

import (
	"errors"

	"github.com/pribylovaa/eshop-auth/internal/service"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const internalMessage = "internal server error"

// toStatus маппит ошибку сервисного слоя в gRPC-статус с ErrorInfo.
// Внутренние детали (op-цепочка, причина из хранилища) наружу не уходят.
func toStatus(err error) error {
	code, reason, msg := classify(err)

	st := status.New(code, msg)
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: authv1.ErrorDomain,
	})
	if derr != nil {
		return st.Err()
	}

	return withInfo.Err()
}

func classify(err error) (codes.Code, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return codes.InvalidArgument, authv1.ReasonInvalidArgument, service.ErrInvalidEmail.Error()
	case errors.Is(err, service.ErrWeakPassword):
		return codes.InvalidArgument, authv1.ReasonInvalidArgument, service.ErrWeakPassword.Error()
	case errors.Is(err, service.ErrEmptyPassword):
		return codes.InvalidArgument, authv1.ReasonInvalidArgument, service.ErrEmptyPassword.Error()
	case errors.Is(err, service.ErrDuplicateEmail):
		return codes.AlreadyExists, authv1.ReasonDuplicateEmail, service.ErrDuplicateEmail.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return codes.Unauthenticated, authv1.ReasonInvalidCredentials, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrTokenReuseDetected):
		return codes.Unauthenticated, authv1.ReasonTokenReuseDetected, service.ErrTokenReuseDetected.Error()
	case errors.Is(err, service.ErrExpiredToken):
		return codes.Unauthenticated, authv1.ReasonExpiredToken, service.ErrExpiredToken.Error()
	case errors.Is(err, service.ErrInvalidToken):
		return codes.Unauthenticated, authv1.ReasonInvalidToken, service.ErrInvalidToken.Error()
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return codes.Unavailable, authv1.ReasonUpstreamUnavailable, service.ErrUpstreamUnavailable.Error()
	default:
		return codes.Internal, authv1.ReasonInternal, internalMessage
	}
}
