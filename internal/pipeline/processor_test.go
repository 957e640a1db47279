package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poclerk/constants"
	"poclerk/internal/extract"
	"poclerk/internal/po"
	"poclerk/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubExtractor struct {
	texts  map[string]string
	errFor map[string]error
}

func (s *stubExtractor) Extract(_ context.Context, path string) (extract.Result, error) {
	if err := s.errFor[path]; err != nil {
		return extract.Result{}, err
	}
	return extract.Result{Text: s.texts[path], Pages: 1, Method: extract.MethodPDFText}, nil
}

type stubTranslator struct {
	response string
	err      error

	mu   sync.Mutex
	seen []string
}

func (s *stubTranslator) Translate(_ context.Context, text string) (string, error) {
	s.mu.Lock()
	s.seen = append(s.seen, text)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type recorded struct {
	poNumber string
	pdfPath  string
}

type stubRecorder struct {
	err error

	mu      sync.Mutex
	inserts []recorded
}

func (s *stubRecorder) Insert(_ context.Context, poNumber, pdfPath string) (store.Record, error) {
	if s.err != nil {
		return store.Record{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts = append(s.inserts, recorded{poNumber, pdfPath})
	return store.Record{ID: "11111111-2222-3333-4444-555555555555", PONumber: poNumber, PDFPath: pdfPath, CreatedAt: time.Now().UTC()}, nil
}

func newTestValidator(t *testing.T) *po.Validator {
	t.Helper()
	v, err := po.NewValidator(constants.ApprovedStores)
	require.NoError(t, err)
	return v
}

func TestProcessRecordsApprovedIdentifier(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/order.pdf": "Ship to Store: 436\nPO: 10432"}}
	tr := &stubTranslator{response: `{"translated_po": "436-10432"}`}
	rec := &stubRecorder{}
	p := NewProcessor(ext, tr, newTestValidator(t), rec, discardLogger())

	res, err := p.Process(context.Background(), "/tmp/order.pdf")
	require.NoError(t, err)

	assert.Equal(t, "436-10432", res.PONumber)
	assert.Equal(t, po.OutcomeOK, res.Outcome)
	assert.Equal(t, "/tmp/order.pdf", res.PDFPath)
	assert.Equal(t, extract.MethodPDFText, res.Method)
	assert.NotEmpty(t, res.RecordID)

	require.Len(t, rec.inserts, 1)
	assert.Equal(t, "436-10432", rec.inserts[0].poNumber)
	assert.Equal(t, "/tmp/order.pdf", rec.inserts[0].pdfPath)
}

func TestProcessCanonicalizesBeforeTranslate(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/order.pdf": "Ship to Store: 436!\r\nPO: 10432"}}
	tr := &stubTranslator{response: `{"translated_po": "436-10432"}`}
	p := NewProcessor(ext, tr, newTestValidator(t), &stubRecorder{}, discardLogger())

	_, err := p.Process(context.Background(), "/tmp/order.pdf")
	require.NoError(t, err)

	require.Len(t, tr.seen, 1)
	assert.Equal(t, "ship to store: 436 po: 10432", tr.seen[0])
}

func TestProcessRejectedRecordsSentinel(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/order.pdf": "PO 10432 for store 999"}}
	tr := &stubTranslator{response: `{"translated_po": "999-10432"}`}
	rec := &stubRecorder{}
	p := NewProcessor(ext, tr, newTestValidator(t), rec, discardLogger())

	res, err := p.Process(context.Background(), "/tmp/order.pdf")
	require.NoError(t, err)

	assert.Equal(t, constants.UnknownPO, res.PONumber)
	assert.Equal(t, po.OutcomeRejected, res.Outcome)
	assert.NotEmpty(t, res.Reason)

	require.Len(t, rec.inserts, 1)
	assert.Equal(t, constants.UnknownPO, rec.inserts[0].poNumber)
}

func TestProcessNoTextAborts(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/blank.pdf": "\n\n   \n"}}
	tr := &stubTranslator{}
	rec := &stubRecorder{}
	p := NewProcessor(ext, tr, newTestValidator(t), rec, discardLogger())

	_, err := p.Process(context.Background(), "/tmp/blank.pdf")
	require.ErrorIs(t, err, ErrNoText)

	assert.Empty(t, tr.seen, "translator must not run on empty text")
	assert.Empty(t, rec.inserts)
}

func TestProcessExtractFailureAborts(t *testing.T) {
	ext := &stubExtractor{errFor: map[string]error{"/tmp/corrupt.pdf": errors.New("read pdf: malformed xref")}}
	rec := &stubRecorder{}
	p := NewProcessor(ext, &stubTranslator{}, newTestValidator(t), rec, discardLogger())

	_, err := p.Process(context.Background(), "/tmp/corrupt.pdf")
	require.ErrorIs(t, err, ErrNoText, "unreadable documents land in the same caller-visible category")
	assert.Contains(t, err.Error(), "malformed xref")
	assert.Empty(t, rec.inserts)
}

func TestProcessNoJSONAborts(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/order.pdf": "store 436 po 10432"}}
	tr := &stubTranslator{response: "I could not find a purchase order in this text."}
	rec := &stubRecorder{}
	p := NewProcessor(ext, tr, newTestValidator(t), rec, discardLogger())

	res, err := p.Process(context.Background(), "/tmp/order.pdf")
	require.Error(t, err)

	var fmtErr *ResponseFormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, po.OutcomeNoJSON, fmtErr.Outcome)
	assert.Equal(t, po.OutcomeNoJSON, res.Outcome)
	assert.Empty(t, rec.inserts, "unparseable responses are not recorded")
}

func TestProcessBadJSONAborts(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/order.pdf": "store 436 po 10432"}}
	tr := &stubTranslator{response: `Sure: {translated_po: 436-10432}`}
	rec := &stubRecorder{}
	p := NewProcessor(ext, tr, newTestValidator(t), rec, discardLogger())

	_, err := p.Process(context.Background(), "/tmp/order.pdf")

	var fmtErr *ResponseFormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, po.OutcomeBadJSON, fmtErr.Outcome)
	assert.Contains(t, fmtErr.Raw, "translated_po")
	assert.Empty(t, rec.inserts)
}

func TestProcessTranslateFailureAborts(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/order.pdf": "store 436 po 10432"}}
	tr := &stubTranslator{err: errors.New("ollama status 500: boom")}
	rec := &stubRecorder{}
	p := NewProcessor(ext, tr, newTestValidator(t), rec, discardLogger())

	_, err := p.Process(context.Background(), "/tmp/order.pdf")
	require.ErrorIs(t, err, ErrTranslate)
	assert.Empty(t, rec.inserts)
}

func TestProcessDuplicateSurfacesStoreError(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/order.pdf": "store 436 po 10432"}}
	tr := &stubTranslator{response: `{"translated_po": "436-10432"}`}
	rec := &stubRecorder{err: store.ErrDuplicatePO}
	p := NewProcessor(ext, tr, newTestValidator(t), rec, discardLogger())

	_, err := p.Process(context.Background(), "/tmp/order.pdf")
	require.ErrorIs(t, err, store.ErrDuplicatePO)
}

func TestProcessWithoutRecorder(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{"/tmp/order.pdf": "store 436 po 10432"}}
	tr := &stubTranslator{response: `{"translated_po": "436-10432"}`}
	p := NewProcessor(ext, tr, newTestValidator(t), nil, discardLogger())

	res, err := p.Process(context.Background(), "/tmp/order.pdf")
	require.NoError(t, err)
	assert.Equal(t, "436-10432", res.PONumber)
	assert.Empty(t, res.RecordID)
}

func TestQueueProcessesAllJobs(t *testing.T) {
	ext := &stubExtractor{
		texts: map[string]string{
			"/tmp/a.pdf": "store 436 po 10432",
			"/tmp/b.pdf": "store 407 po 94219",
		},
		errFor: map[string]error{"/tmp/bad.pdf": errors.New("read pdf: truncated")},
	}
	tr := &stubTranslator{response: `{"translated_po": "436-10432"}`}
	rec := &stubRecorder{}
	proc := NewProcessor(ext, tr, newTestValidator(t), rec, discardLogger())
	q := NewQueue(proc, discardLogger(), WithWorkers(2), WithQueueSize(8))

	ctx := context.Background()
	for _, path := range []string{"/tmp/a.pdf", "/tmp/b.pdf", "/tmp/bad.pdf"} {
		require.NoError(t, q.Enqueue(ctx, Job{Path: path}))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	stats := q.Stats()
	assert.Equal(t, uint64(2), stats.Processed)
	assert.Equal(t, uint64(1), stats.Failed)
}

func TestQueueEnqueueAfterShutdownIsNoop(t *testing.T) {
	proc := NewProcessor(&stubExtractor{}, &stubTranslator{}, newTestValidator(t), nil, discardLogger())
	q := NewQueue(proc, discardLogger(), WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "/tmp/late.pdf"}))
	assert.Equal(t, uint64(0), q.Stats().Processed)
}
