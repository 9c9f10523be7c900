package handler

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/umanagarjuna/linkshort/internal/url/domain"
)

const urlServiceName = "linkshort.v1.URLService"

// URLServiceServer is served under linkshort.v1.URLService. Messages are
// protobuf well-known types so clients need no generated stubs.
type URLServiceServer interface {
	Shorten(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resolve(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	GetURL(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

var URLServiceDesc = grpc.ServiceDesc{
	ServiceName: urlServiceName,
	HandlerType: (*URLServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Shorten", Handler: shortenHandler},
		{MethodName: "Resolve", Handler: resolveHandler},
		{MethodName: "GetURL", Handler: getURLHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "linkshort/v1/url.proto",
}

type GRPCHandler struct {
	service URLService
	logger  *zap.Logger
}

func NewGRPCHandler(service URLService, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{
		service: service,
		logger:  logger,
	}
}

func (h *GRPCHandler) Register(server *grpc.Server) {
	server.RegisterService(&URLServiceDesc, h)
}

// Shorten expects longUrl and optionally customShortCode and expirationMinutes.
func (h *GRPCHandler) Shorten(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	shortenReq := &domain.ShortenRequest{
		LongURL:         fields["longUrl"].GetStringValue(),
		CustomShortCode: fields["customShortCode"].GetStringValue(),
	}
	if v, ok := fields["expirationMinutes"]; ok {
		f := v.GetNumberValue()
		if math.IsNaN(f) || math.IsInf(f, 0) || f > float64(domain.MaxExpirationMinutes) {
			return nil, h.toStatus(fmt.Errorf("%w: %v minutes", domain.ErrInvalidExpiration, f), "Shorten")
		}
		if f > 0 {
			minutes := int(f)
			shortenReq.ExpirationMinutes = &minutes
		}
	}

	url, err := h.service.Shorten(ctx, shortenReq)
	if err != nil {
		return nil, h.toStatus(err, "Shorten")
	}

	return h.toStruct(url)
}

func (h *GRPCHandler) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	click := &domain.ClickEvent{}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		click.IP = p.Addr.String()
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ua := md.Get("user-agent"); len(ua) > 0 {
			click.UserAgent = ua[0]
		}
	}

	longURL, err := h.service.Resolve(ctx, req.GetValue(), click)
	if err != nil {
		return nil, h.toStatus(err, "Resolve")
	}

	return wrapperspb.String(longURL), nil
}

func (h *GRPCHandler) GetURL(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	url, err := h.service.GetURL(ctx, req.GetValue())
	if err != nil {
		return nil, h.toStatus(err, "GetURL")
	}

	return h.toStruct(url)
}

func (h *GRPCHandler) toStruct(url *domain.URL) (*structpb.Struct, error) {
	fields := map[string]any{
		"short_code": url.ShortCode,
		"short_url":  h.service.ShortURL(url.ShortCode),
		"long_url":   url.LongURL,
		"created_at": url.CreatedAt.Format(time.RFC3339),
		"clicks":     url.Clicks,
	}
	if url.ExpiresAt != nil {
		fields["expires_at"] = url.ExpiresAt.Format(time.RFC3339)
	}

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return resp, nil
}

func (h *GRPCHandler) toStatus(err error, method string) error {
	_, code, apiErr := classify(err)
	if code == codes.Internal {
		h.logger.Error("gRPC call failed", zap.String("method", method), zap.Error(err))
	}
	return status.Error(code, apiErr.Message)
}

// UnaryLoggingInterceptor logs each unary call with its status code.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler) (any, error) {

		start := time.Now()
		resp, err := handler(ctx, req)

		logger.Info("gRPC request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)))

		return resp, err
	}
}

func shortenHandler(srv any, ctx context.Context, dec func(any) error,
	interceptor grpc.UnaryServerInterceptor) (any, error) {

	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(URLServiceServer).Shorten(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + urlServiceName + "/Shorten"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(URLServiceServer).Shorten(ctx, req.(*structpb.Struct))
	})
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error,
	interceptor grpc.UnaryServerInterceptor) (any, error) {

	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(URLServiceServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + urlServiceName + "/Resolve"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(URLServiceServer).Resolve(ctx, req.(*wrapperspb.StringValue))
	})
}

func getURLHandler(srv any, ctx context.Context, dec func(any) error,
	interceptor grpc.UnaryServerInterceptor) (any, error) {

	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(URLServiceServer).GetURL(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + urlServiceName + "/GetURL"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(URLServiceServer).GetURL(ctx, req.(*wrapperspb.StringValue))
	})
}
