package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	stdsync "sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	syncapp "github.com/markethub/backend/internal/application/sync"
	domainsync "github.com/markethub/backend/internal/domain/sync"
	"github.com/markethub/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockChangeFeedRepository implements sync.ChangeFeedRepository for testing
type MockChangeFeedRepository struct {
	mock.Mock
}

func (m *MockChangeFeedRepository) Append(ctx context.Context, event *domainsync.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockChangeFeedRepository) FindAfter(ctx context.Context, afterSeq int64, limit int) ([]domainsync.ChangeEvent, error) {
	args := m.Called(ctx, afterSeq, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domainsync.ChangeEvent), args.Error(1)
}

func (m *MockChangeFeedRepository) LatestSeq(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChangeFeedRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func testChangeEvent(seq int64, entityType string, op domainsync.ChangeOp) domainsync.ChangeEvent {
	return domainsync.ChangeEvent{
		Seq:        seq,
		EntityType: entityType,
		EntityID:   uuid.New(),
		Op:         op,
		Actor:      "admin",
		CreatedAt:  time.Now(),
	}
}

func newSyncTestRouter(h *SyncHandler) *gin.Engine {
	router := gin.New()
	router.GET("/sync/changes", h.Changes)
	return router
}

func TestSyncHandlerChanges(t *testing.T) {
	t.Run("returns events and advances cursor", func(t *testing.T) {
		feed := new(MockChangeFeedRepository)
		h := NewSyncHandler(nil, feed, zap.NewNop())

		events := []domainsync.ChangeEvent{
			testChangeEvent(3, "product", domainsync.OpCreate),
			testChangeEvent(7, "order", domainsync.OpUpdate),
		}
		feed.On("FindAfter", mock.Anything, int64(0), 200).Return(events, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/sync/changes", nil)
		newSyncTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(7), data["cursor"])
		assert.Len(t, data["events"].([]interface{}), 2)
	})

	t.Run("quiet feed keeps the request cursor", func(t *testing.T) {
		feed := new(MockChangeFeedRepository)
		h := NewSyncHandler(nil, feed, zap.NewNop())

		feed.On("FindAfter", mock.Anything, int64(42), 200).Return([]domainsync.ChangeEvent{}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/sync/changes?since=42", nil)
		newSyncTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(42), data["cursor"])
	})

	t.Run("rejects negative cursor", func(t *testing.T) {
		feed := new(MockChangeFeedRepository)
		h := NewSyncHandler(nil, feed, zap.NewNop())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/sync/changes?since=-1", nil)
		newSyncTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects oversized limit", func(t *testing.T) {
		feed := new(MockChangeFeedRepository)
		h := NewSyncHandler(nil, feed, zap.NewNop())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/sync/changes?limit=5000", nil)
		newSyncTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// sseRecorder is a thread-safe ResponseWriter for reading an SSE body
// while the handler goroutine is still writing it.
type sseRecorder struct {
	mu     stdsync.Mutex
	header http.Header
	buf    bytes.Buffer
	status int
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{header: make(http.Header), status: http.StatusOK}
}

func (r *sseRecorder) Header() http.Header { return r.header }

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *sseRecorder) WriteHeader(status int) { r.status = status }

func (r *sseRecorder) Flush() {}

func (r *sseRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func TestSyncHandlerStream(t *testing.T) {
	feed := new(MockChangeFeedRepository)
	realtime := syncapp.NewRealtimeService(feed, zap.NewNop())
	h := NewSyncHandler(realtime, feed, zap.NewNop(), WithSyncHeartbeat(20*time.Millisecond))

	event := testChangeEvent(1, "product", domainsync.OpCreate)
	feed.On("FindAfter", mock.Anything, int64(0), mock.Anything).Return([]domainsync.ChangeEvent{event}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	recorder := newSSERecorder()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/sync/stream", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(c)
	}()

	// The handler registers its subscriber before sending "connected"
	require.Eventually(t, func() bool {
		return realtime.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	realtime.Poll(context.Background())

	require.Eventually(t, func() bool {
		body := recorder.Body()
		return bytes.Contains([]byte(body), []byte("event: change")) &&
			bytes.Contains([]byte(body), []byte(`"entity_type":"product"`))
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not stop on context cancel")
	}

	body := recorder.Body()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "id: 1")
	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.Zero(t, realtime.SubscriberCount())
}
