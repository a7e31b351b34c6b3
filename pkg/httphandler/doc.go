/*
Package httphandler provides read/write HTTP handlers for a minion.Manager.

# Job Endpoints

	GET    /job            - List jobs (optional ?queues, ?states, ?tasks, ?offset, ?limit)
	POST   /job            - Enqueue a new job
	GET    /job/{id}       - Get a single job
	PATCH  /job/{id}       - Add or remove notes on a job
	DELETE /job/{id}       - Remove a terminal or not-yet-dispatched job

# Worker Endpoints

	GET    /worker         - List registered workers
	POST   /worker         - Register a new worker
	GET    /worker/{id}    - Get a single worker
	DELETE /worker/{id}    - Unregister a worker

# Lock Endpoints

	GET    /lock           - List active locks
	DELETE /lock/{name}    - Release a lock

# Reporting Endpoints

	GET    /stats          - Queue-wide counters
	GET    /history        - Trailing 24 hour finished/failed history
	GET    /metrics        - Prometheus metrics

# Usage

	manager, _ := minion.New(ctx, conn, minion.WithNamespace("myapp"))
	router := http.NewServeMux()
	httphandler.RegisterHandlers(router, "/api", manager)
	http.ListenAndServe(":8080", router)
*/
package httphandler
