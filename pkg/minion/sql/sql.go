// Package sql holds the named SQL statement text consumed by pkg/minion
// through db.NewQueries. Statements are separated by "-- name" comment
// lines and substituted into Go code via ${minion.<name>} template
// variables, the same convention the storage access layer uses elsewhere.
package sql

// Queries is parsed by db.NewQueries into the named statements referenced
// from pkg/minion/schema as ${minion.<name>}.
//
// Every timestamp column is computed in Go and bound as formatted text
// (pkg/db/types.FormatTime) rather than asked of the database, since the
// store only needs to compare timestamps lexicographically, not perform
// temporal arithmetic. List filters are rendered in Go as literal IN (...)
// lists inside the ${where} fragment; job_try binds its queue slice and
// expands it with the "${'key'}" template form. Neither uses the
// array-typed parameters Postgres supports. parents is a JSON array of
// job ids stored as TEXT, walked with json_each when job_try checks
// dependencies.
const Queries = `
-- minion.job_insert
INSERT INTO ${ns}_minion_jobs
  (task, args, queue, priority, attempts, lax, parents, notes, delayed, expires, created)
VALUES
  (@task, @args, @queue, @priority, @attempts, @lax, @parents, @notes, @delayed, @expires, @created)
RETURNING id

-- minion.job_get
SELECT id, task, args, queue, priority, state, attempts, retries, lax,
       parents, notes, result, worker, delayed, expires,
       created, started, retried, finished
FROM ${ns}_minion_jobs
WHERE id = @id

-- minion.job_try
UPDATE ${ns}_minion_jobs
SET state = 'active', worker = @worker, started = @now
WHERE id = (
  SELECT id FROM ${ns}_minion_jobs j
  WHERE j.state = 'inactive'
    AND j.delayed <= @now
    AND (j.expires IS NULL OR j.expires > @now)
    AND j.queue IN (${'queues'})
    ${taskfilter}
    ${idfilter}
    AND NOT EXISTS (
      SELECT 1 FROM json_each(j.parents) p
      JOIN ${ns}_minion_jobs pj ON pj.id = CAST(p.value AS INTEGER)
      WHERE pj.state = 'active'
         OR (pj.state = 'failed' AND j.lax = 0)
         OR (pj.state = 'inactive' AND (pj.expires IS NULL OR pj.expires > @now))
    )
  ORDER BY j.priority DESC, j.id ASC
  LIMIT 1
)
RETURNING id, task, args, retries

-- minion.job_finish
UPDATE ${ns}_minion_jobs
SET state = 'finished', result = @result, finished = @now
WHERE id = @id AND retries = @retries AND state = 'active'
RETURNING id, attempts

-- minion.job_fail
UPDATE ${ns}_minion_jobs
SET state = 'failed', result = @result, finished = @now
WHERE id = @id AND retries = @retries AND state = 'active'
RETURNING id, attempts

-- minion.job_retry
UPDATE ${ns}_minion_jobs
SET state = 'inactive',
    retries = retries + 1,
    retried = @now,
    delayed = @delayed,
    attempts = COALESCE(@attempts, attempts),
    expires = CASE WHEN @hasexpire THEN @expires ELSE expires END,
    lax = COALESCE(@lax, lax),
    parents = COALESCE(@parents, parents),
    priority = COALESCE(@priority, priority),
    queue = COALESCE(@queue, queue)
WHERE id = @id AND retries = @retries
RETURNING id

-- minion.job_note
UPDATE ${ns}_minion_jobs
SET notes = json_patch(notes, @patch)
WHERE id = @id
RETURNING id

-- minion.job_remove
DELETE FROM ${ns}_minion_jobs
WHERE id = @id AND state IN ('inactive', 'failed', 'finished')
RETURNING id

-- minion.job_list
SELECT id, task, args, queue, priority, state, attempts, retries, lax,
       parents, notes, result, worker, delayed, expires,
       created, started, retried, finished
FROM ${ns}_minion_jobs
${where}
ORDER BY id DESC

-- minion.job_force_fail
UPDATE ${ns}_minion_jobs
SET state = 'failed', result = @result, finished = @now
WHERE id = @id AND state = @from
RETURNING id

-- minion.repair_expire_workers
DELETE FROM ${ns}_minion_workers
WHERE notified < @cutoff
RETURNING id

-- minion.repair_remove_finished
DELETE FROM ${ns}_minion_jobs
WHERE state = 'finished'
  AND finished <= @cutoff
  AND NOT EXISTS (
    SELECT 1 FROM ${ns}_minion_jobs c, json_each(c.parents) p
    WHERE c.state <> 'finished' AND CAST(p.value AS INTEGER) = ${ns}_minion_jobs.id
  )

-- minion.repair_remove_expired_inactive
DELETE FROM ${ns}_minion_jobs
WHERE state = 'inactive' AND expires IS NOT NULL AND expires <= @now

-- minion.repair_orphan_active
UPDATE ${ns}_minion_jobs
SET state = 'failed', result = @result, finished = @now
WHERE state = 'active'
  AND queue <> @foreground_queue
  AND worker IS NOT NULL
  AND NOT EXISTS (SELECT 1 FROM ${ns}_minion_workers w WHERE w.id = ${ns}_minion_jobs.worker)
RETURNING id, retries, attempts

-- minion.repair_stuck
UPDATE ${ns}_minion_jobs
SET state = 'failed', result = @result, finished = @now
WHERE state = 'inactive' AND delayed < @cutoff

-- minion.worker_touch
UPDATE ${ns}_minion_workers
SET notified = @now, status = @status
WHERE id = @id
RETURNING id

-- minion.worker_insert
INSERT INTO ${ns}_minion_workers (host, pid, status, started, notified)
VALUES (@host, @pid, @status, @now, @now)
RETURNING id

-- minion.worker_get
SELECT id, host, pid, started, notified, status, inbox
FROM ${ns}_minion_workers
WHERE id = @id

-- minion.worker_unregister
DELETE FROM ${ns}_minion_workers
WHERE id = @id
RETURNING id

-- minion.worker_list
SELECT id, host, pid, started, notified, status, inbox
FROM ${ns}_minion_workers
${where}
ORDER BY id DESC

-- minion.worker_broadcast
UPDATE ${ns}_minion_workers
SET inbox = json_insert(inbox, '$[#]', json(@msg))
${where}

-- minion.worker_receive
WITH w AS (
  SELECT inbox FROM ${ns}_minion_workers WHERE id = @id
)
UPDATE ${ns}_minion_workers
SET inbox = '[]'
WHERE id = @id
RETURNING (SELECT inbox FROM w)

-- minion.lock_cleanup
DELETE FROM ${ns}_minion_locks
WHERE expires <= @now

-- minion.lock_count
SELECT count(*) FROM ${ns}_minion_locks WHERE name = @name

-- minion.lock_insert
INSERT INTO ${ns}_minion_locks (name, expires)
VALUES (@name, @expires)
RETURNING id

-- minion.lock_unlock
DELETE FROM ${ns}_minion_locks
WHERE id = (
  SELECT id FROM ${ns}_minion_locks
  WHERE name = @name AND expires > @now
  ORDER BY expires ASC
  LIMIT 1
)
RETURNING id

-- minion.lock_list
SELECT id, name, expires
FROM ${ns}_minion_locks
${where}
ORDER BY id DESC

-- minion.stats
SELECT
  count(*) FILTER (WHERE state = 'active')   AS active_jobs,
  count(*) FILTER (WHERE state = 'inactive') AS inactive_jobs,
  count(*) FILTER (WHERE state = 'failed')   AS failed_jobs,
  count(*) FILTER (WHERE state = 'finished') AS finished_jobs,
  count(*) FILTER (WHERE state = 'inactive' AND delayed > @now) AS delayed_jobs,
  (SELECT count(*) FROM ${ns}_minion_jobs) AS enqueued_jobs
FROM ${ns}_minion_jobs

-- minion.stats_workers
SELECT count(*) AS total_workers,
       count(*) FILTER (WHERE id IN (
         SELECT DISTINCT worker FROM ${ns}_minion_jobs WHERE state = 'active' AND worker IS NOT NULL
       )) AS active_workers
FROM ${ns}_minion_workers

-- minion.stats_locks
SELECT count(*) FROM ${ns}_minion_locks WHERE expires > @now

-- minion.history
SELECT
  strftime('%Y-%m-%d %H:00:00', finished) AS bucket,
  SUM(CASE WHEN state = 'finished' THEN 1 ELSE 0 END) AS finished_jobs,
  SUM(CASE WHEN state = 'failed'   THEN 1 ELSE 0 END) AS failed_jobs
FROM ${ns}_minion_jobs
WHERE finished >= @since
GROUP BY bucket
ORDER BY bucket
`
