package grpcserver

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"topbook/snapshot"
)

const maxDepth = 1024

// QuoteReader is satisfied by service.BookService.
type QuoteReader interface {
	Quote() snapshot.Quote
	Ladder(depth int) snapshot.Ladder
}

// Server adapts the book service to gRPC. It only reads.
type Server struct {
	svc QuoteReader
}

func NewServer(svc QuoteReader) *Server {
	return &Server{svc: svc}
}

// New builds a gRPC server exposing QuoteService and the standard health
// service. The health status starts NOT_SERVING; flip it once the feed is up.
func New(svc QuoteReader, logger zerolog.Logger) (*grpc.Server, *health.Server) {
	g := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLogger(logger)))
	RegisterQuoteServiceServer(g, NewServer(svc))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(g, hs)
	reflection.Register(g)
	return g, hs
}

// -------------------- Queries --------------------

func (s *Server) GetQuote(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(s.svc.Quote().Fields())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode quote: %v", err)
	}
	return out, nil
}

// GetDepth returns up to req levels per side; 0 means the configured depth.
func (s *Server) GetDepth(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.Struct, error) {
	depth := req.GetValue()
	if depth < 0 || depth > maxDepth {
		return nil, status.Errorf(codes.InvalidArgument, "depth must be in [0, %d], got %d", maxDepth, depth)
	}
	out, err := structpb.NewStruct(s.svc.Ladder(int(depth)).Fields())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode ladder: %v", err)
	}
	return out, nil
}

// -------------------- Interceptors --------------------

// UnaryLogger logs every call at debug level and failures at warn.
func UnaryLogger(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	logger = logger.With().Str("component", "grpc").Logger()
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		ev := logger.Debug()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str("method", info.FullMethod).Str("code", code.String()).Dur("took", time.Since(start)).Msg("rpc")
		return resp, err
	}
}
