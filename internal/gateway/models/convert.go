package models

import (
	domain "github.com/pribylovaa/eshop-auth/internal/models"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

func (m AuthRegisterRequest) ToProto() *authv1.RegisterRequest {
	return &authv1.RegisterRequest{
		Email:     m.Email,
		Password:  m.Password,
		FirstName: m.FirstName,
		LastName:  m.LastName,
	}
}

func (m AuthLoginRequest) ToProto() *authv1.LoginRequest {
	return &authv1.LoginRequest{
		Email:    m.Email,
		Password: m.Password,
	}
}

func (m AuthRefreshRequest) ToProto() *authv1.RefreshRequest {
	return &authv1.RefreshRequest{RefreshToken: m.RefreshToken}
}

func (m AuthLogoutRequest) ToProto() *authv1.LogoutRequest {
	return &authv1.LogoutRequest{RefreshToken: m.RefreshToken}
}

func UserFromProto(u *authv1.User) User {
	if u == nil {
		return User{}
	}

	return User{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func TokensFromProto(p *authv1.TokenPair) AuthTokensResponse {
	if p == nil {
		return AuthTokensResponse{}
	}

	return AuthTokensResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

func LoginFromProto(r *authv1.LoginResponse) AuthLoginResponse {
	if r == nil {
		return AuthLoginResponse{}
	}

	return AuthLoginResponse{
		AuthTokensResponse: TokensFromProto(r.Tokens),
		User:               UserFromProto(r.User),
	}
}

func IdentityFromDomain(id domain.Identity) IdentityResponse {
	return IdentityResponse{
		UserID: id.UserID.String(),
		Email:  id.Email,
		Role:   id.Role.String(),
	}
}
