/*
activity.go - Read side of the append-only activity log

PURPOSE:
  The ActivityLog owns event retrieval. Events are created only by the
  Engine as a side effect of a successful mutation; this wrapper gives
  readers a bounded, newest-first view.

INVARIANTS:
  - Append-only: no Update, no Delete
  - Ordering: newest first, by commit order
  - Each query returns a fresh independent snapshot

SEE ALSO:
  - store.go: EventStore contract
  - engine.go: The only writer
*/
package ledger

import "context"

// DefaultActivityLimit bounds activity queries when the caller does not
// pass an explicit limit.
const DefaultActivityLimit = 10

// ActivityLog retrieves ledger events.
type ActivityLog struct {
	Store EventStore
}

func NewActivityLog(store EventStore) *ActivityLog {
	return &ActivityLog{Store: store}
}

// RecentForUser returns up to limit events for the user, newest first.
// A non-positive limit falls back to DefaultActivityLimit.
func (l *ActivityLog) RecentForUser(ctx context.Context, userID UserID, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return l.Store.RecentByUser(ctx, userID, limit)
}
