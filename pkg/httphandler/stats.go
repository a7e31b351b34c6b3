package httphandler

import (
	"net/http"

	// Packages
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterReportHandlers registers HTTP handlers for stats and history.
func RegisterReportHandlers(router *http.ServeMux, prefix string, manager *minion.Manager) {
	router.HandleFunc(joinPath(prefix, "stats"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = statsGet(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})

	router.HandleFunc(joinPath(prefix, "history"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = historyGet(w, r, manager)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func statsGet(w http.ResponseWriter, r *http.Request, manager *minion.Manager) error {
	stats, err := manager.Stats(r.Context())
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), stats)
}

func historyGet(w http.ResponseWriter, r *http.Request, manager *minion.Manager) error {
	history, err := manager.History(r.Context())
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), history)
}
