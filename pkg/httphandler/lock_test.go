package httphandler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	// Packages
	httphandler "github.com/Grinnz/minion-pg/pkg/httphandler"
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	test "github.com/Grinnz/minion-pg/pkg/test"
	assert "github.com/stretchr/testify/assert"
)

func Test_Lock_ListAndRelease(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.Background()

	mgr, err := minion.New(ctx, conn, minion.WithNamespace(test.UniqueNamespace(t)))
	assert.NoError(err)

	ok, err := mgr.Lock(ctx, "import_csv", time.Minute, 1)
	assert.NoError(err)
	assert.True(ok)

	router := http.NewServeMux()
	httphandler.RegisterLockHandlers(router, "/api", mgr)

	t.Run("List", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/lock", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)
	})

	t.Run("Release", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/lock/import_csv", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusOK, w.Code)
	})

	t.Run("ReleaseNotHeld", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/lock/never_taken", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		assert.Equal(http.StatusNotFound, w.Code)
	})
}
