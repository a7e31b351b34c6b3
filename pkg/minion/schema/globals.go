package schema

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	// Packages
	types "github.com/Grinnz/minion-pg/pkg/db/types"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// SchemaName is the default table-name prefix the minion tables live
	// under, e.g. "minion_jobs" for namespace "minion".
	SchemaName = "minion"

	JobListLimit    = 100
	WorkerListLimit = 100
	LockListLimit   = 100

	DefaultDequeueInterval = 500 * time.Millisecond
	DefaultMissingAfter    = 30 * time.Minute
	DefaultRemoveAfter     = 24 * time.Hour
	DefaultStuckAfter      = 2 * time.Hour

	DefaultQueue = "default"
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func stringify[T any](v T) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

////////////////////////////////////////////////////////////////////////////////
// LIST LITERALS
//
// WHERE-clause fragments are assembled in Go and bound as a single
// "${where}"-style template variable. Any IN-list they contain must
// already be a literal comma-joined list by the time that happens:
// Bind.Replace expands a query's "${...}" tokens in one left-to-right
// pass, so a fragment that still contained an unexpanded "${'key'}" token
// would be spliced in verbatim rather than expanded a second time.

func quotedList(vs []string) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = types.Quote(v)
	}
	return strings.Join(parts, ",")
}

func numericList(vs []uint64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, ",")
}
