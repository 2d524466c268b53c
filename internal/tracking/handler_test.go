package tracking

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdrop/admin-console/internal/service/approval"
)

type recordedOpen struct {
	email, emailType string
	hadDeadline      bool
	live             bool
}

type fakeRecorder struct {
	calls []recordedOpen
	block bool
}

func (f *fakeRecorder) RecordOpen(ctx context.Context, email, emailType string) approval.OpenResult {
	_, ok := ctx.Deadline()
	f.calls = append(f.calls, recordedOpen{email: email, emailType: emailType, hadDeadline: ok, live: ctx.Err() == nil})
	if f.block {
		<-ctx.Done()
		return approval.OpenResult{}
	}
	return approval.OpenResult{EntryMarked: true}
}

func assertPixel(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
	assert.Equal(t, "0", w.Header().Get("Expires"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}

func TestHandleOpen_RecordsAndServesPixel(t *testing.T) {
	rec := &fakeRecorder{}
	h := NewHandler(rec, time.Second)

	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, Path+"?email=ada%40example.com&type=beta_approval", nil))

	assertPixel(t, w)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "ada@example.com", rec.calls[0].email)
	assert.Equal(t, "beta_approval", rec.calls[0].emailType)
	assert.True(t, rec.calls[0].hadDeadline)
}

func TestHandleOpen_MissingParams(t *testing.T) {
	rec := &fakeRecorder{}
	h := NewHandler(rec, time.Second)

	for _, q := range []string{"", "?email=ada%40example.com", "?type=beta_approval", "?email=&type="} {
		w := httptest.NewRecorder()
		h.HandleOpen(w, httptest.NewRequest(http.MethodGet, Path+q, nil))
		assertPixel(t, w)
	}
	assert.Empty(t, rec.calls)
}

func TestHandleOpen_SlowStoreBoundedByTimeout(t *testing.T) {
	rec := &fakeRecorder{block: true}
	h := NewHandler(rec, 20*time.Millisecond)

	start := time.Now()
	w := httptest.NewRecorder()
	h.HandleOpen(w, httptest.NewRequest(http.MethodGet, Path+"?email=a%40b.c&type=beta_approval", nil))

	assertPixel(t, w)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHandleOpen_ClientCancelDoesNotAbortRecording(t *testing.T) {
	rec := &fakeRecorder{}
	h := NewHandler(rec, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodGet, Path+"?email=a%40b.c&type=beta_approval", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	h.HandleOpen(w, r)

	assertPixel(t, w)
	require.Len(t, rec.calls, 1)
	assert.True(t, rec.calls[0].live)
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler(&fakeRecorder{}, 0).Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
