// transport/grpc — gRPC-эндпоинты auth.v1.AuthService.
// Здесь только маппинг данных и ошибок доменного слоя (service) в gRPC;
// валидация и бизнес-логика живут в пакете service.
//
// Ошибки сервиса транслируются в коды gRPC со status detail
// google.rpc.ErrorInfo (Reason, Domain "auth.eshop"), см. errors.go.
// Verify при недействительном/просроченном токене RPC-ошибку не возвращает:
// отдаёт {success:false, reason}.
package grpc

import (
	"context"
	"errors"

	"github.com/pribylovaa/eshop-auth/internal/models"
	"github.com/pribylovaa/eshop-auth/internal/service"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

// Auth — операции сервисного слоя, которые обслуживает транспорт.
type Auth interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Verify(ctx context.Context, accessToken string) (*models.Identity, error)
	Me(ctx context.Context, accessToken string) (*models.User, error)
}

type AuthServer struct {
	authv1.UnimplementedAuthServiceServer
	service Auth
}

// NewAuthServer создаёт gRPC-сервер авторизации поверх сервисного слоя.
func NewAuthServer(svc Auth) *AuthServer {
	return &AuthServer{service: svc}
}

func (s *AuthServer) Register(ctx context.Context, req *authv1.RegisterRequest) (*authv1.RegisterResponse, error) {
	user, err := s.service.Register(ctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return nil, toStatus(err)
	}

	return &authv1.RegisterResponse{
		Success: true,
		Message: "user registered",
		User:    userToPB(user),
	}, nil
}

func (s *AuthServer) Login(ctx context.Context, req *authv1.LoginRequest) (*authv1.LoginResponse, error) {
	pair, user, err := s.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &authv1.LoginResponse{
		Success: true,
		Message: "login successful",
		Tokens:  pairToPB(pair),
		User:    userToPB(user),
	}, nil
}

func (s *AuthServer) Refresh(ctx context.Context, req *authv1.RefreshRequest) (*authv1.RefreshResponse, error) {
	pair, err := s.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}

	return &authv1.RefreshResponse{
		Success: true,
		Message: "tokens refreshed",
		Tokens:  pairToPB(pair),
	}, nil
}

func (s *AuthServer) Logout(ctx context.Context, req *authv1.LogoutRequest) (*authv1.LogoutResponse, error) {
	if err := s.service.Logout(ctx, req.RefreshToken); err != nil {
		return nil, toStatus(err)
	}

	return &authv1.LogoutResponse{Success: true, Message: "logged out"}, nil
}

func (s *AuthServer) Verify(ctx context.Context, req *authv1.VerifyRequest) (*authv1.VerifyResponse, error) {
	id, err := s.service.Verify(ctx, req.AccessToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExpiredToken):
			return &authv1.VerifyResponse{Message: "token expired", Reason: authv1.ReasonExpiredToken}, nil
		case errors.Is(err, service.ErrInvalidToken):
			return &authv1.VerifyResponse{Message: "invalid token", Reason: authv1.ReasonInvalidToken}, nil
		}

		return nil, toStatus(err)
	}

	return &authv1.VerifyResponse{
		Success: true,
		Message: "token valid",
		UserID:  id.UserID.String(),
		Email:   id.Email,
		Role:    id.Role.String(),
	}, nil
}

func (s *AuthServer) Me(ctx context.Context, req *authv1.MeRequest) (*authv1.MeResponse, error) {
	user, err := s.service.Me(ctx, req.AccessToken)
	if err != nil {
		return nil, toStatus(err)
	}

	return &authv1.MeResponse{Success: true, Message: "ok", User: userToPB(user)}, nil
}

func userToPB(u *models.User) *authv1.User {
	if u == nil {
		return nil
	}

	v := u.View()
	return &authv1.User{
		ID:          v.ID.String(),
		Email:       v.Email,
		FirstName:   v.FirstName,
		LastName:    v.LastName,
		Role:        v.Role.String(),
		IsVerified:  v.IsVerified,
		IsActive:    v.IsActive,
		LastLoginAt: v.LastLoginAt,
		CreatedAt:   v.CreatedAt,
	}
}

func pairToPB(p *models.TokenPair) *authv1.TokenPair {
	return &authv1.TokenPair{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}
