package httphandler

import (
	"net/http"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterLockHandlers registers HTTP handlers for lock operations.
func RegisterLockHandlers(router *http.ServeMux, prefix string, manager *minion.Manager) {
	router.HandleFunc(joinPath(prefix, "lock"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = lockList(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "lock/{name}"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			_ = lockRelease(w, r, manager, r.PathValue("name"))
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func lockList(w http.ResponseWriter, r *http.Request, manager *minion.Manager) error {
	var req schema.LockListRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}
	response, err := manager.ListLocks(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func lockRelease(w http.ResponseWriter, r *http.Request, manager *minion.Manager, name string) error {
	ok, err := manager.Unlock(r.Context(), name)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	} else if !ok {
		return httpresponse.Error(w, httpresponse.ErrNotFound.With("lock not held"), name)
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), struct {
		Name string `json:"name"`
	}{name})
}
