package feed

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topbook/domain/orderbook"
	"topbook/infra/kafka"
	"topbook/infra/sequence"
	"topbook/service"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	next      int
	committed []int64
	failAfter error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.next < len(r.msgs) {
		m := r.msgs[r.next]
		r.next++
		r.mu.Unlock()
		return m, nil
	}
	fail := r.failAfter
	r.mu.Unlock()
	if fail != nil {
		return kafka.Message{}, fail
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func messages(values ...string) []kafka.Message {
	out := make([]kafka.Message, len(values))
	for i, v := range values {
		out[i] = kafka.Message{Offset: int64(i), Value: []byte(v)}
	}
	return out
}

func newService(capacity int) *service.BookService {
	return service.NewBookService("BTCUSDT", 5, orderbook.New(capacity), sequence.New(0), zerolog.Nop(), nil)
}

func TestIngestorAppliesAndCommits(t *testing.T) {
	reader := &fakeReader{msgs: messages(
		`{"side":"bid","price":100.00,"size":1000,"ts":1}`,
		`{"side":"bid","price":99.99,"size":500,"ts":2}`,
		`{"side":"ask","price":100.01,"size":800,"ts":3}`,
		`not json`,
		`{"side":"sell","price":100.02,"size":1200,"ts":4}`,
		`{"side":"bid","price":100.00,"size":0,"ts":5}`,
		`{"side":"mid","price":1,"size":1}`,
		`{"side":"ask","size":1}`,
	)}
	svc := newService(8)
	in := New(reader, svc, Config{RingSize: 4, CommitBatch: 3, Idle: 50 * time.Microsecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- in.Run(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 8 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7}, reader.commits())
	assert.Equal(t, uint64(5), svc.Seq())

	q := svc.Quote()
	assert.Equal(t, 99.99, q.Bid.Price)
	assert.Equal(t, 100.01, q.Ask.Price)
	assert.Equal(t, uint64(3), q.Ask.TimestampNs)
}

func TestIngestorReturnsReaderError(t *testing.T) {
	boom := errors.New("reader closed")
	reader := &fakeReader{
		msgs:      messages(`{"side":"bid","price":1,"size":1,"ts":1}`),
		failAfter: boom,
	}
	svc := newService(4)
	in := New(reader, svc, Config{RingSize: 2, CommitBatch: 10}, zerolog.Nop())

	err := in.Run(context.Background())
	require.ErrorIs(t, err, boom)

	// the update fetched before the failure was still applied and committed
	assert.Equal(t, uint64(1), svc.Seq())
	assert.Equal(t, []int64{0}, reader.commits())
}

func TestDecodeDefaultsTimestamp(t *testing.T) {
	in := New(&fakeReader{}, newService(1), Config{RingSize: 2}, zerolog.Nop())
	in.now = func() time.Time { return time.Unix(0, 42) }

	u, err := in.decode([]byte(`{"side":"ask","price":10.5,"size":3}`))
	require.NoError(t, err)
	assert.Equal(t, orderbook.LevelUpdate{Side: orderbook.Ask, Price: 10.5, Size: 3, TimestampNs: 42}, u)

	_, err = in.decode([]byte(`{"side":"ask","price":10.5}`))
	assert.ErrorIs(t, err, errMissingField)
}

func TestDecodeRejectsNonFinitePrice(t *testing.T) {
	in := New(&fakeReader{}, newService(1), Config{RingSize: 2}, zerolog.Nop())

	_, err := in.decode([]byte(`{"side":"bid","price":1e400,"size":1,"ts":1}`))
	assert.Error(t, err)

	for _, p := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, checkPrice(p), errBadPrice)
	}
	assert.NoError(t, checkPrice(100.01))
}

func TestNonFinitePriceNeverReachesBook(t *testing.T) {
	svc := newService(2)
	reader := &fakeReader{msgs: messages(
		`{"side":"bid","price":1e400,"size":1,"ts":1}`,
		`{"side":"bid","price":-1e400,"size":1,"ts":2}`,
		`{"side":"bid","price":5.0,"size":1,"ts":3}`,
	)}
	in := New(reader, svc, Config{RingSize: 4, CommitBatch: 1, Idle: 50 * time.Microsecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- in.Run(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, 1, svc.Levels(orderbook.Bid))
	assert.Equal(t, 5.0, svc.Quote().Bid.Price)
}

type gatedApplier struct {
	started chan struct{}
	release chan struct{}

	mu   sync.Mutex
	errs []error
}

func (a *gatedApplier) Apply(ctx context.Context, _ orderbook.LevelUpdate) bool {
	a.mu.Lock()
	a.errs = append(a.errs, ctx.Err())
	n := len(a.errs)
	a.mu.Unlock()
	if n == 1 {
		close(a.started)
		<-a.release
	}
	return true
}

func TestDrainAppliesWithLiveContext(t *testing.T) {
	reader := &fakeReader{msgs: messages(
		`{"side":"bid","price":100.00,"size":1,"ts":1}`,
		`{"side":"bid","price":99.99,"size":1,"ts":2}`,
	)}
	app := &gatedApplier{started: make(chan struct{}), release: make(chan struct{})}
	in := New(reader, app, Config{RingSize: 4, CommitBatch: 10, Idle: 50 * time.Microsecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- in.Run(ctx) }()

	<-app.started
	cancel()
	close(app.release)
	require.NoError(t, <-errCh)

	app.mu.Lock()
	defer app.mu.Unlock()
	require.Len(t, app.errs, 2)
	assert.NoError(t, app.errs[1], "updates drained after cancel still get a usable context")
	assert.Equal(t, []int64{0, 1}, reader.commits())
}
