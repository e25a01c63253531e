// Package session provides the session registry for the Casta game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Atomic get-or-create for caller-supplied session IDs
//   - Lookup that never creates (used by move handling)
//   - Configurable starting board for new sessions
//
// Session Identifiers:
//
// IDs are opaque, caller-supplied strings compared exactly. They must be
// non-blank and at most MaxSessionIDLength bytes. The manager never generates
// IDs: a room exists because some client joined it by name.
//
// Concurrency:
//
// The registry map is guarded by a RWMutex. GetOrCreate re-checks under the
// write lock, so two simultaneous first joins to the same ID observe a single
// session. Per-session state has its own lock inside service.Session.
//
// Usage:
//
//	manager := session.NewManager(session.WithBoardFactory(engine.NewStartingBoard))
//
//	sess, err := manager.GetOrCreate("g1")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get("g1")
//
// Lifetime:
//
// Sessions live as long as the process. There is no delete or expiry.
package session
