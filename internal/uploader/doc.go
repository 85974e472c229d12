// Package uploader runs the background consumer that drains the durable
// queue into the ingestion endpoint.
//
// # Lifecycle
//
// The uploader moves through STARTING -> RUNNING -> STOP_REQUESTED ->
// STOPPED. It enters RUNNING once the queue signals readiness; a stop
// arriving while still STARTING goes straight to STOPPED. Once a stop is
// requested the loop keeps pulling and delivering until a pull comes back
// empty, so Stop returns only after the queue is fully drained.
//
// # Delivery outcome policy
//
//	200/201          delete the batch (acknowledged)
//	400              delete the batch (permanently unprocessable), report
//	other status     retain, report, retry on the next pull
//	I/O failure      retain, report, retry on the next pull
//
// Failing batches retry immediately with no backoff; only the empty-queue
// idle wait throttles the loop. Delivery is at-least-once and always in
// insertion order.
package uploader
