package authv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "auth.v1.AuthService"

// Полные имена методов.
const (
	AuthService_Register_FullMethodName = "/auth.v1.AuthService/Register"
	AuthService_Login_FullMethodName    = "/auth.v1.AuthService/Login"
	AuthService_Refresh_FullMethodName  = "/auth.v1.AuthService/Refresh"
	AuthService_Logout_FullMethodName   = "/auth.v1.AuthService/Logout"
	AuthService_Verify_FullMethodName   = "/auth.v1.AuthService/Verify"
	AuthService_Me_FullMethodName       = "/auth.v1.AuthService/Me"
)

// AuthServiceServer — серверная сторона auth.v1.AuthService.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Verify(context.Context, *VerifyRequest) (*VerifyResponse, error)
	Me(context.Context, *MeRequest) (*MeResponse, error)
}

// UnimplementedAuthServiceServer отвечает codes.Unimplemented на всё.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}

func (UnimplementedAuthServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}

func (UnimplementedAuthServiceServer) Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
}

func (UnimplementedAuthServiceServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}

func (UnimplementedAuthServiceServer) Verify(context.Context, *VerifyRequest) (*VerifyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Verify not implemented")
}

func (UnimplementedAuthServiceServer) Me(context.Context, *MeRequest) (*MeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Me not implemented")
}

// RegisterAuthServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

// unaryHandler собирает grpc.MethodDesc.Handler для метода с типами Req/Resp.
func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(AuthServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// AuthService_ServiceDesc — дескриптор auth.v1.AuthService.
var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler: unaryHandler(AuthService_Register_FullMethodName,
				func(s AuthServiceServer, ctx context.Context, in *RegisterRequest) (*RegisterResponse, error) {
					return s.Register(ctx, in)
				}),
		},
		{
			MethodName: "Login",
			Handler: unaryHandler(AuthService_Login_FullMethodName,
				func(s AuthServiceServer, ctx context.Context, in *LoginRequest) (*LoginResponse, error) {
					return s.Login(ctx, in)
				}),
		},
		{
			MethodName: "Refresh",
			Handler: unaryHandler(AuthService_Refresh_FullMethodName,
				func(s AuthServiceServer, ctx context.Context, in *RefreshRequest) (*RefreshResponse, error) {
					return s.Refresh(ctx, in)
				}),
		},
		{
			MethodName: "Logout",
			Handler: unaryHandler(AuthService_Logout_FullMethodName,
				func(s AuthServiceServer, ctx context.Context, in *LogoutRequest) (*LogoutResponse, error) {
					return s.Logout(ctx, in)
				}),
		},
		{
			MethodName: "Verify",
			Handler: unaryHandler(AuthService_Verify_FullMethodName,
				func(s AuthServiceServer, ctx context.Context, in *VerifyRequest) (*VerifyResponse, error) {
					return s.Verify(ctx, in)
				}),
		},
		{
			MethodName: "Me",
			Handler: unaryHandler(AuthService_Me_FullMethodName,
				func(s AuthServiceServer, ctx context.Context, in *MeRequest) (*MeResponse, error) {
					return s.Me(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/auth",
}
