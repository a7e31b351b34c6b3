package httphandler

import (
	"net/http"
	"strconv"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterWorkerHandlers registers HTTP handlers for worker operations.
func RegisterWorkerHandlers(router *http.ServeMux, prefix string, manager *minion.Manager) {
	router.HandleFunc(joinPath(prefix, "worker"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = workerList(w, r, manager)
		case http.MethodPost:
			_ = workerRegister(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "worker/{id}"), func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
		if err != nil {
			_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With("invalid worker id"), r.PathValue("id"))
			return
		}

		switch r.Method {
		case http.MethodGet:
			_ = workerGet(w, r, manager, id)
		case http.MethodDelete:
			_ = workerUnregister(w, r, manager, id)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func workerList(w http.ResponseWriter, r *http.Request, manager *minion.Manager) error {
	var req schema.WorkerListRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}
	response, err := manager.ListWorkers(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func workerRegister(w http.ResponseWriter, r *http.Request, manager *minion.Manager) error {
	var req struct {
		Host   string         `json:"host"`
		Pid    uint64         `json:"pid"`
		Status map[string]any `json:"status,omitempty"`
	}
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, err)
	}
	id, err := manager.RegisterWorker(r.Context(), req.Host, req.Pid, req.Status)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	worker, err := manager.GetWorker(r.Context(), id)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), worker)
}

func workerGet(w http.ResponseWriter, r *http.Request, manager *minion.Manager, id uint64) error {
	worker, err := manager.GetWorker(r.Context(), id)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), worker)
}

func workerUnregister(w http.ResponseWriter, r *http.Request, manager *minion.Manager, id uint64) error {
	worker, err := manager.GetWorker(r.Context(), id)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	if err := manager.UnregisterWorker(r.Context(), id); err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), worker)
}
