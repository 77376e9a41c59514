package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gourmetguru/api/test/testutils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

type stubChecker struct {
	status  Status
	message string
	delay   time.Duration
	calls   atomic.Int32
}

func (s *stubChecker) Check(ctx context.Context) Check {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Check{Status: StatusUnhealthy, Message: ctx.Err().Error()}
		}
	}
	return Check{Status: s.status, Message: s.message, LastChecked: time.Now()}
}

func TestCheckAggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"no checkers", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for i, s := range tt.statuses {
				hc.Register(string(rune('a'+i)), &stubChecker{status: s})
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.want, response.Status)
			assert.Equal(t, "1.0.0", response.Version)
			assert.Len(t, response.Checks, len(tt.statuses))
		})
	}
}

func TestCheckNamesAndSortsResults(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.Register("redis", &stubChecker{status: StatusHealthy})
	hc.Register("database", &stubChecker{status: StatusHealthy})

	response := hc.Check(context.Background())

	require.Len(t, response.Checks, 2)
	assert.Equal(t, "database", response.Checks[0].Name)
	assert.Equal(t, "redis", response.Checks[1].Name)
}

func TestCheckRunsConcurrently(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	delay := 50 * time.Millisecond
	for _, name := range []string{"a", "b", "c"} {
		hc.Register(name, &stubChecker{status: StatusHealthy, delay: delay})
	}

	start := time.Now()
	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Less(t, time.Since(start), 2*delay)
}

func TestCheckIsCached(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	checker := &stubChecker{status: StatusHealthy}
	hc.Register("db", checker)

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), checker.calls.Load())

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestHandlers(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.SetCacheTTL(0)
	hc.Register("db", &stubChecker{status: StatusUnhealthy, message: "down"})

	rec := httptest.NewRecorder()
	hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Contains(t, body, "total_duration_ms")

	rec = httptest.NewRecorder()
	hc.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")

	rec = httptest.NewRecorder()
	hc.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}

func TestDatabaseChecker(t *testing.T) {
	db := testutils.SetupSQLiteDatabase(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	check := NewDatabaseChecker(sqlDB).Check(context.Background())

	assert.Equal(t, StatusHealthy, check.Status)
	assert.Contains(t, check.Metadata, "open_connections")

	require.NoError(t, sqlDB.Close())
	check = NewDatabaseChecker(sqlDB).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
}

func TestRedisCheckerUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	check := NewRedisChecker(client).Check(context.Background())

	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Message)
}

func TestMongoChecker(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ping succeeds", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		check := NewMongoChecker(mt.Client).Check(context.Background())
		assert.Equal(mt, StatusHealthy, check.Status)
	})

	mt.Run("ping fails", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "unauthorized",
		}))
		check := NewMongoChecker(mt.Client).Check(context.Background())
		assert.Equal(mt, StatusUnhealthy, check.Status)
	})
}

func TestCustomChecker(t *testing.T) {
	c := NewCustomChecker("keys", func(context.Context) (Status, string, interface{}) {
		return StatusDegraded, "no provider keys", map[string]int{"keys": 0}
	})

	check := c.Check(context.Background())

	assert.Equal(t, "keys", check.Name)
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "no provider keys", check.Message)
}
