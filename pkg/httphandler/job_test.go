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
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	httphandler "github.com/Grinnz/minion-pg/pkg/httphandler"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

func Test_Job_EnqueueAndGet(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.Background()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	router := http.NewServeMux()
	httphandler.RegisterJobHandlers(router, "/api", mgr)

	var created schema.Job
	t.Run("Enqueue", func(t *testing.T) {
		body := `{"task": "send_email", "args": {"to": "a@example.com"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/job", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if !assert.Equal(http.StatusCreated, w.Code) {
			t.Logf("response: %s", w.Body.String())
		}
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal("send_email", created.Task)
		assert.NotZero(created.Id)
	})

	t.Run("EnqueueMissingTask", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/job", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("Get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/job/"+strconv.FormatUint(created.Id, 10), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)

		var job schema.Job
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &job))
		assert.Equal(created.Id, job.Id)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/job/999999999", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("GetInvalidId", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/job/not-a-number", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("Note", func(t *testing.T) {
		body := `{"notes": {"progress": 50}}`
		req := httptest.NewRequest(http.MethodPatch, "/api/job/"+strconv.FormatUint(created.Id, 10), bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)

		var job schema.Job
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &job))
		assert.Equal(float64(50), job.Notes["progress"])
	})

	t.Run("Remove", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/job/"+strconv.FormatUint(created.Id, 10), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/job/"+strconv.FormatUint(created.Id, 10), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(http.StatusNotFound, w.Code)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/job", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusMethodNotAllowed, w.Code)
	})
}
