package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName    = "topbook.QuoteService"
	GetQuoteMethod = "/" + ServiceName + "/GetQuote"
	GetDepthMethod = "/" + ServiceName + "/GetDepth"
)

// QuoteServiceServer is the server side of topbook.QuoteService. The
// messages are protobuf well-known types, so no generated code is needed.
type QuoteServiceServer interface {
	GetQuote(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetDepth(context.Context, *wrapperspb.Int32Value) (*structpb.Struct, error)
}

var QuoteServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QuoteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetQuote", Handler: getQuoteHandler},
		{MethodName: "GetDepth", Handler: getDepthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "topbook/quote.proto",
}

func RegisterQuoteServiceServer(s grpc.ServiceRegistrar, srv QuoteServiceServer) {
	s.RegisterService(&QuoteServiceDesc, srv)
}

func getQuoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QuoteServiceServer).GetQuote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetQuoteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QuoteServiceServer).GetQuote(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getDepthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QuoteServiceServer).GetDepth(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetDepthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QuoteServiceServer).GetDepth(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}

// QuoteServiceClient calls topbook.QuoteService over any client connection.
type QuoteServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewQuoteServiceClient(cc grpc.ClientConnInterface) *QuoteServiceClient {
	return &QuoteServiceClient{cc: cc}
}

func (c *QuoteServiceClient) GetQuote(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetQuoteMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QuoteServiceClient) GetDepth(ctx context.Context, depth int32, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetDepthMethod, wrapperspb.Int32(depth), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
