package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSource struct {
	pending   []Event
	published []string
}

func (m *memSource) Drain(ctx context.Context, limit int, fn func(context.Context, []Event) ([]string, error)) (int, error) {
	n := min(limit, len(m.pending))
	if n == 0 {
		return 0, nil
	}
	ids, err := fn(ctx, m.pending[:n])
	if err != nil && len(ids) == 0 {
		return 0, err
	}
	done := map[string]bool{}
	for _, id := range ids {
		done[id] = true
	}
	var rest []Event
	for _, e := range m.pending {
		if !done[e.ID] {
			rest = append(rest, e)
		}
	}
	m.pending = rest
	m.published = append(m.published, ids...)
	return len(ids), nil
}

type stubPublisher struct {
	fail map[string]bool
	seen []Event
}

func (p *stubPublisher) Publish(_ context.Context, events []Event) ([]string, error) {
	var (
		ids []string
		err error
	)
	for _, e := range events {
		p.seen = append(p.seen, e)
		if p.fail[e.ID] {
			err = errors.New("broker unavailable")
			continue
		}
		ids = append(ids, e.ID)
	}
	return ids, err
}

func mustEvent(t *testing.T, aggregate string) Event {
	t.Helper()
	e, err := NewEvent(aggregate, "order.paid", map[string]string{"order_id": aggregate})
	require.NoError(t, err)
	return e
}

func TestRunOncePublishesAndMarks(t *testing.T) {
	e1, e2 := mustEvent(t, "o1"), mustEvent(t, "o2")
	src := &memSource{pending: []Event{e1, e2}}
	pub := &stubPublisher{}

	results := map[string]int{}
	r := NewRelay(src, pub, nil, 0)
	r.OnResult = func(result string, n int) { results[result] += n }

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, src.pending)
	assert.Equal(t, []string{e1.ID, e2.ID}, src.published)
	assert.Equal(t, 2, results["published"])
	assert.JSONEq(t, `{"order_id":"o1"}`, string(pub.seen[0].Payload))
}

func TestRunOnceKeepsFailedEventsPending(t *testing.T) {
	e1, e2 := mustEvent(t, "o1"), mustEvent(t, "o2")
	src := &memSource{pending: []Event{e1, e2}}
	pub := &stubPublisher{fail: map[string]bool{e2.ID: true}}

	results := map[string]int{}
	r := NewRelay(src, pub, nil, 0)
	r.OnResult = func(result string, n int) { results[result] += n }

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, src.pending, 1)
	assert.Equal(t, e2.ID, src.pending[0].ID)
	assert.Equal(t, 1, results["failed"])

	pub.fail = nil
	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, src.pending)
}

func TestRunOnceSurfacesTotalFailure(t *testing.T) {
	e1 := mustEvent(t, "o1")
	src := &memSource{pending: []Event{e1}}
	pub := &stubPublisher{fail: map[string]bool{e1.ID: true}}

	_, err := NewRelay(src, pub, nil, 0).RunOnce(context.Background())
	assert.Error(t, err)
	assert.Len(t, src.pending, 1)
}

func TestRecordCarriesKeyAndHeaders(t *testing.T) {
	e := mustEvent(t, "order-9")
	rec := Record("orders.events", e)

	assert.Equal(t, "orders.events", rec.Topic)
	assert.Equal(t, []byte("order-9"), rec.Key)
	require.Len(t, rec.Headers, 2)
	assert.Equal(t, HeaderEventType, rec.Headers[0].Key)
	assert.Equal(t, []byte("order.paid"), rec.Headers[0].Value)
}
