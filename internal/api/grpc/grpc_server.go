package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/olyamironova/market-engine/internal/api/dto"
	"github.com/olyamironova/market-engine/internal/core"
	"github.com/olyamironova/market-engine/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const defaultTradesLimit = 100

// Market is the part of core.Manager the gRPC API uses.
type Market interface {
	PlaceOrder(ctx context.Context, o *domain.Order) ([]domain.Trade, error)
	CancelOrderByID(ctx context.Context, id string) (bool, error)
	Account(name string) (*domain.Account, bool)
	Snapshot(p domain.Product) (domain.BookSnapshot, bool)
	Trades(limit int) []domain.Trade
}

var _ Market = (*core.Manager)(nil)

type GRPCServer struct {
	market Market
	now    func() time.Time
}

var _ MarketServer = (*GRPCServer)(nil)

func NewGRPCServer(market Market) *GRPCServer {
	return &GRPCServer{market: market, now: time.Now}
}

// NewServer returns a grpc.Server serving the market and the standard
// health service.
func NewServer(market Market, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(logInterceptor(logger)))
	s := grpc.NewServer(opts...)
	RegisterMarketServer(s, NewGRPCServer(market))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s
}

func (s *GRPCServer) PlaceOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.PlaceOrderRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := ValidateOrder(&in); err != nil {
		return nil, err
	}
	side, _ := dto.ToSide(in.Side)

	acct, ok := s.market.Account(in.Account)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown account %s", in.Account)
	}
	o := domain.NewOrder(domain.NewProduct(in.Product), in.Price, in.Amount, acct, side, s.now())
	trades, err := s.market.PlaceOrder(ctx, o)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(dto.PlaceOrderResponse{
		Order:  dto.FromOrderState(o.State()),
		Trades: dto.FromTrades(trades),
	})
}

func (s *GRPCServer) CancelOrder(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "order id is required")
	}
	ok, err := s.market.CancelOrderByID(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *GRPCServer) GetBook(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	snap, ok := s.market.Snapshot(domain.NewProduct(req.GetValue()))
	if !ok {
		return nil, status.Errorf(codes.NotFound, "product not listed: %s", req.GetValue())
	}
	return toStruct(dto.FromSnapshot(&snap))
}

func (s *GRPCServer) GetTrades(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	limit := int(req.GetValue())
	if limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}
	if limit == 0 {
		limit = defaultTradesLimit
	}
	return toStruct(dto.GetTradesResponse{Trades: dto.FromTrades(s.market.Trades(limit))})
}

func ValidateOrder(req *dto.PlaceOrderRequest) error {
	if req.Account == "" || req.Product == "" {
		return status.Error(codes.InvalidArgument, "account and product are required")
	}
	if _, err := dto.ToSide(req.Side); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrIllegalTrade):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Errorf(codes.Internal, "market: %v", err)
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func logInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		if code == codes.Internal || code == codes.Unknown {
			logger.Error("rpc", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("rpc", fields...)
		}
		return resp, err
	}
}
