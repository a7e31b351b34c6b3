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

// RegisterJobHandlers registers HTTP handlers for job operations.
func RegisterJobHandlers(router *http.ServeMux, prefix string, manager *minion.Manager) {
	router.HandleFunc(joinPath(prefix, "job"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = jobList(w, r, manager)
		case http.MethodPost:
			_ = jobEnqueue(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "job/{id}"), func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
		if err != nil {
			_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With("invalid job id"), r.PathValue("id"))
			return
		}

		switch r.Method {
		case http.MethodGet:
			_ = jobGet(w, r, manager, id)
		case http.MethodPatch:
			_ = jobNote(w, r, manager, id)
		case http.MethodDelete:
			_ = jobRemove(w, r, manager, id)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func jobList(w http.ResponseWriter, r *http.Request, manager *minion.Manager) error {
	var req schema.JobListRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}
	response, err := manager.ListJobs(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func jobEnqueue(w http.ResponseWriter, r *http.Request, manager *minion.Manager) error {
	var req schema.JobEnqueue
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, err)
	}
	id, err := manager.Enqueue(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	job, err := manager.GetJob(r.Context(), id)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), job)
}

func jobGet(w http.ResponseWriter, r *http.Request, manager *minion.Manager, id uint64) error {
	job, err := manager.GetJob(r.Context(), id)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), job)
}

func jobNote(w http.ResponseWriter, r *http.Request, manager *minion.Manager, id uint64) error {
	var req struct {
		Notes map[string]any `json:"notes"`
	}
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, err)
	}
	if err := manager.Note(r.Context(), id, req.Notes); err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	job, err := manager.GetJob(r.Context(), id)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), job)
}

func jobRemove(w http.ResponseWriter, r *http.Request, manager *minion.Manager, id uint64) error {
	job, err := manager.GetJob(r.Context(), id)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	if err := manager.RemoveJob(r.Context(), id); err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), job)
}
