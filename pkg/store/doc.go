// Package store persists the error log between sessions.
//
// The telemetry service treats the store as a write-behind mirror: every
// change to the log produces a new Record, and the most recent Record is
// read back once at startup to rehydrate the log. Records are whole-log
// snapshots, so a write never depends on an earlier one.
//
// # Backends
//
//   - Redis: one JSON value per Key, expiring after the retention window
//   - Memory: in-process, for tests and for embedding without persistence
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	s := store.NewRedis(redisClient, store.Key{Namespace: "checkout-ui"}, 7*24*time.Hour)
//
//	rec, err := s.Load(ctx)
//	if errors.Is(err, store.ErrNoRecord) {
//		// First session - start empty
//	}
//
// # Metrics
//
//   - telemetry_store_operations_total{backend,operation} - Store operations
//   - telemetry_store_errors_total{backend,operation} - Failed operations
//   - telemetry_store_record_bytes{backend} - Size of the last record written
package store
