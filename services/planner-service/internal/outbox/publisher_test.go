package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/clevery/dayplanner/libs/kafkax"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journal records the order of calls across the fakes below.
type journal struct{ steps []string }

func (j *journal) add(step string) { j.steps = append(j.steps, step) }

type fakeTx struct {
	pgx.Tx
	log       *journal
	committed bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	t.log.add("commit")
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.log.add("rollback")
	return nil
}

type fakeBeginner struct {
	log *journal
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.log.add("begin")
	b.tx = &fakeTx{log: b.log}
	return b.tx, nil
}

type fakeBatchStore struct {
	log     *journal
	records []Record
	marked  []int64
	markErr error
}

func (s *fakeBatchStore) FetchUnpublished(_ context.Context, _ pgx.Tx, limit int) ([]Record, error) {
	s.log.add("fetch")
	return s.records[:min(limit, len(s.records))], nil
}

func (s *fakeBatchStore) MarkPublished(_ context.Context, _ pgx.Tx, ids []int64) error {
	s.log.add("mark")
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, ids...)
	return nil
}

type fakeWriter struct {
	log  *journal
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.log.add("write")
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func pendingRecords() []Record {
	return []Record{
		{ID: 7, EventID: "e-7", EventType: ActivityCreated, AggregateID: "a1", Payload: []byte(`{}`)},
		{ID: 8, EventID: "e-8", EventType: CalendarItemCreated, AggregateID: "c1", Payload: []byte(`{}`)},
	}
}

func newTestPublisher(log *journal, store *fakeBatchStore) (*Publisher, *fakeBeginner) {
	begin := &fakeBeginner{log: log}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPublisher(begin, store, logger, nil, PublisherConfig{BatchSize: 10}), begin
}

func TestPublishBatch_MarksAfterWrite(t *testing.T) {
	log := &journal{}
	store := &fakeBatchStore{log: log, records: pendingRecords()}
	p, begin := newTestPublisher(log, store)
	w := &fakeWriter{log: log}

	n, err := p.publishBatch(context.Background(), w)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"begin", "fetch", "write", "mark", "commit"}, log.steps)
	assert.Equal(t, []int64{7, 8}, store.marked)
	assert.True(t, begin.tx.committed)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, ActivityCreated, w.msgs[0].Topic)
	assert.Equal(t, "e-8", kafkax.ExtractEventMeta(w.msgs[1]).EventID)
}

func TestPublishBatch_WriteErrorRollsBack(t *testing.T) {
	log := &journal{}
	store := &fakeBatchStore{log: log, records: pendingRecords()}
	p, begin := newTestPublisher(log, store)

	_, err := p.publishBatch(context.Background(), &fakeWriter{log: log, err: errors.New("broker down")})
	require.Error(t, err)

	assert.Equal(t, []string{"begin", "fetch", "write", "rollback"}, log.steps)
	assert.Empty(t, store.marked)
	assert.False(t, begin.tx.committed)
}

func TestPublishBatch_MarkErrorRollsBack(t *testing.T) {
	log := &journal{}
	store := &fakeBatchStore{log: log, records: pendingRecords(), markErr: errors.New("serialization failure")}
	p, begin := newTestPublisher(log, store)

	_, err := p.publishBatch(context.Background(), &fakeWriter{log: log})
	require.Error(t, err)

	assert.Equal(t, []string{"begin", "fetch", "write", "mark", "rollback"}, log.steps)
	assert.False(t, begin.tx.committed)
}

func TestPublishBatch_EmptyBatchSkipsWriter(t *testing.T) {
	log := &journal{}
	p, _ := newTestPublisher(log, &fakeBatchStore{log: log})

	n, err := p.publishBatch(context.Background(), &fakeWriter{log: log})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{"begin", "fetch", "commit"}, log.steps)
}

func TestPublishBatch_BeginError(t *testing.T) {
	log := &journal{}
	p, begin := newTestPublisher(log, &fakeBatchStore{log: log, records: pendingRecords()})
	begin.err = errors.New("pool closed")

	_, err := p.publishBatch(context.Background(), &fakeWriter{log: log})
	require.Error(t, err)
	assert.Empty(t, log.steps)
}
