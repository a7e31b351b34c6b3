package httphandler

import (
	"errors"
	"net/http"

	// Packages
	db "github.com/Grinnz/minion-pg/pkg/db"
	minion "github.com/Grinnz/minion-pg/pkg/minion"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHandlers registers all minion HTTP handlers on router under prefix.
// The manager must be non-nil.
func RegisterHandlers(router *http.ServeMux, prefix string, manager *minion.Manager) {
	RegisterJobHandlers(router, prefix, manager)
	RegisterWorkerHandlers(router, prefix, manager)
	RegisterLockHandlers(router, prefix, manager)
	RegisterReportHandlers(router, prefix, manager)
	RegisterMetricsHandler(router, prefix, manager)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func joinPath(prefix, path string) string {
	return types.JoinPath(prefix, path)
}

// httperr maps the db package's error vocabulary onto HTTP status errors.
func httperr(err error) error {
	if err == nil {
		return nil
	}

	var httpErr httpresponse.Err
	if errors.As(err, &httpErr) {
		return err
	}

	switch {
	case errors.Is(err, db.ErrNotFound):
		return httpresponse.ErrNotFound.With(err.Error())
	case errors.Is(err, db.ErrBadParameter), errors.Is(err, db.ErrDuplicateEntry):
		return httpresponse.ErrBadRequest.With(err.Error())
	case errors.Is(err, db.ErrNotImplemented), errors.Is(err, db.ErrNotAvailable):
		return httpresponse.ErrNotImplemented.With(err.Error())
	default:
		return httpresponse.ErrInternalError.With(err.Error())
	}
}
