package httphandler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	// Packages
	httphandler "github.com/Grinnz/minion-pg/pkg/httphandler"
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

func Test_Stats_And_History(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.Background()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	_, err = mgr.Enqueue(ctx, schema.JobEnqueue{Task: "reported"})
	assert.NoError(err)

	router := http.NewServeMux()
	httphandler.RegisterReportHandlers(router, "/api", mgr)

	t.Run("Stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)

		var stats schema.Stats
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &stats))
		assert.EqualValues(1, stats.InactiveJobs)
	})

	t.Run("History", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)

		var history schema.History
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &history))
		assert.Len(history.Daily, 24)
	})
}
