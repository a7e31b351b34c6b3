package minion_test

import (
	// Packages
	schema "github.com/Grinnz/minion-pg/pkg/minion/schema"
)

// schemaEnqueue builds a minimal JobEnqueue for task, in the default queue.
func schemaEnqueue(task string) schema.JobEnqueue {
	return schema.JobEnqueue{Task: task}
}
