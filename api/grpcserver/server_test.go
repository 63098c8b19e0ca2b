package grpcserver

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"topbook/domain/orderbook"
	"topbook/infra/sequence"
	"topbook/service"
)

func dial(t *testing.T, svc QuoteReader) *QuoteServiceClient {
	t.Helper()
	return NewQuoteServiceClient(dialConn(t, svc))
}

func dialConn(t *testing.T, svc QuoteReader) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, hs := New(svc, zerolog.Nop())
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bookService(t *testing.T) *service.BookService {
	t.Helper()
	svc := service.NewBookService("BTCUSDT", 2, orderbook.New(8), sequence.New(0), zerolog.Nop(), nil)
	ctx := context.Background()
	for _, u := range []orderbook.LevelUpdate{
		{Side: orderbook.Bid, Price: 100.00, Size: 1000, TimestampNs: 1},
		{Side: orderbook.Bid, Price: 99.99, Size: 500, TimestampNs: 2},
		{Side: orderbook.Bid, Price: 99.98, Size: 100, TimestampNs: 3},
		{Side: orderbook.Ask, Price: 100.01, Size: 800, TimestampNs: 4},
		{Side: orderbook.Ask, Price: 100.02, Size: 1200, TimestampNs: 5},
	} {
		require.True(t, svc.Apply(ctx, u))
	}
	return svc
}

func TestGetQuote(t *testing.T) {
	client := dial(t, bookService(t))

	q, err := client.GetQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", q.Fields["symbol"].GetStringValue())
	assert.Equal(t, 5.0, q.Fields["seq"].GetNumberValue())
	assert.Equal(t, 100.00, q.Fields["bid"].GetStructValue().Fields["price"].GetNumberValue())
	assert.Equal(t, 800.0, q.Fields["ask"].GetStructValue().Fields["size"].GetNumberValue())
	assert.InDelta(t, 0.01, q.Fields["spread"].GetNumberValue(), 1e-9)
}

func TestGetQuoteEmptyBook(t *testing.T) {
	svc := service.NewBookService("BTCUSDT", 2, orderbook.New(4), sequence.New(0), zerolog.Nop(), nil)
	client := dial(t, svc)

	q, err := client.GetQuote(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, q.Fields, "bid")
	assert.NotContains(t, q.Fields, "mid")
}

func TestGetDepth(t *testing.T) {
	client := dial(t, bookService(t))
	ctx := context.Background()

	ladder, err := client.GetDepth(ctx, 0)
	require.NoError(t, err)
	bids := ladder.Fields["bids"].GetListValue().GetValues()
	require.Len(t, bids, 2, "0 falls back to the configured depth")
	assert.Equal(t, 99.99, bids[1].GetStructValue().Fields["price"].GetNumberValue())

	ladder, err = client.GetDepth(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, ladder.Fields["bids"].GetListValue().GetValues(), 3)
	assert.Len(t, ladder.Fields["asks"].GetListValue().GetValues(), 2)

	_, err = client.GetDepth(ctx, -1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := dialConn(t, bookService(t))

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
