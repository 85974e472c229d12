// Package queue implements the durable FIFO that buffers log entries until
// the uploader delivers them.
//
// # Overview
//
// Entries are persisted in Pebble under lexicographically ordered keys:
//   - q/{name}/m           (queue metadata: last assigned id)
//   - q/{name}/e/{id_be8}  (entries)
//
// Records are stored as: ts_be8 | message | crc32c(ts|message).
//
// Ids are assigned from a counter persisted alongside every enqueue, so the
// sequence is strictly increasing across process restarts and a reopened
// queue resumes where it left off. Reads always scan ascending ids, which
// equals insertion order; entries stay visible until DeleteBatch commits.
//
// API surface (internal)
//
//	q := queue.Open(queue.Options{DataDir: dir, Name: "app"})
//	<-q.ReadySignal()
//
//	q.Enqueue("formatted line", time.Now().UnixNano())
//
//	batch := q.DequeueBatch(50)
//	// ... deliver ...
//	q.DeleteBatch(batch)
//
//	// Blocking wait/notify for the consumer's idle loop
//	woke := q.WaitForEnqueue(time.Second)
//	_ = woke
//
//	_ = q.Close(ctx)
package queue
