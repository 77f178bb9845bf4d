package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name. Messages are
// protobuf well-known types carrying the same JSON documents as the HTTP
// API, so any gRPC client can call it without generated stubs.
const ServiceName = "market.v1.Market"

const (
	placeOrderMethod  = "/" + ServiceName + "/PlaceOrder"
	cancelOrderMethod = "/" + ServiceName + "/CancelOrder"
	getBookMethod     = "/" + ServiceName + "/GetBook"
	getTradesMethod   = "/" + ServiceName + "/GetTrades"
)

type MarketServer interface {
	// PlaceOrder takes a PlaceOrderRequest document and returns a
	// PlaceOrderResponse document.
	PlaceOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// CancelOrder takes an order id and reports whether the order was
	// resting.
	CancelOrder(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	GetBook(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	// GetTrades returns up to limit of the newest trades, 0 means the
	// default limit.
	GetTrades(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error)
}

func RegisterMarketServer(s grpc.ServiceRegistrar, srv MarketServer) {
	s.RegisterService(&MarketServiceDesc, srv)
}

var MarketServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: placeOrderHandler},
		{MethodName: "CancelOrder", Handler: cancelOrderHandler},
		{MethodName: "GetBook", Handler: getBookHandler},
		{MethodName: "GetTrades", Handler: getTradesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "market/v1/market.proto",
}

func placeOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketServer).PlaceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: placeOrderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketServer).PlaceOrder(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func cancelOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketServer).CancelOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: cancelOrderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketServer).CancelOrder(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getBookHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketServer).GetBook(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getBookMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketServer).GetBook(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getTradesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketServer).GetTrades(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getTradesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MarketServer).GetTrades(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// MarketClient calls a MarketServer over a client connection.
type MarketClient struct {
	cc grpc.ClientConnInterface
}

func NewMarketClient(cc grpc.ClientConnInterface) *MarketClient {
	return &MarketClient{cc: cc}
}

func (c *MarketClient) PlaceOrder(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, placeOrderMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketClient) CancelOrder(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, cancelOrderMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketClient) GetBook(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getBookMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketClient) GetTrades(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getTradesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
