// Package store keeps records of finished workflow runs.
//
// A [Store] holds at most a fixed number of records in memory, evicting the
// oldest first, and persists them through an [Adapter]:
//
//	s := store.New(store.NewFileAdapter("runs.json"), 100)
//	if err := s.Reload(ctx); err != nil { ... }
//	s.Put(store.NewRecord(result, startedAt))
//	defer s.Sync(ctx)
//
// [MemoryAdapter] keeps nothing beyond the process; [FileAdapter] writes a
// JSON document.
package store
