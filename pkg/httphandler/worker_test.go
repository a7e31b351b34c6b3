package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	// Packages
	httphandler "github.com/Grinnz/minion-pg/pkg/httphandler"
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

func Test_Worker_RegisterAndGet(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.Background()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	router := http.NewServeMux()
	httphandler.RegisterWorkerHandlers(router, "/api", mgr)

	var worker schema.Worker
	t.Run("Register", func(t *testing.T) {
		body := `{"host": "worker1.local", "pid": 100}`
		req := httptest.NewRequest(http.MethodPost, "/api/worker", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusCreated, w.Code)
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &worker))
		assert.Equal("worker1.local", worker.Host)
	})

	t.Run("Get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/worker/"+strconv.FormatUint(worker.Id, 10), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)
	})

	t.Run("Unregister", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/worker/"+strconv.FormatUint(worker.Id, 10), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/worker/"+strconv.FormatUint(worker.Id, 10), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(http.StatusNotFound, w.Code)
	})
}

func Test_Worker_List(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.Background()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	_, err = mgr.RegisterWorker(ctx, "host", 1, nil)
	assert.NoError(err)

	router := http.NewServeMux()
	httphandler.RegisterWorkerHandlers(router, "/api", mgr)

	req := httptest.NewRequest(http.MethodGet, "/api/worker", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)
	assert.Equal(http.StatusOK, w.Code)

	var list schema.WorkerList
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(1, list.Count)
}
