package session

import (
	"slices"

	"github.com/charlesng35/sessionkit/internal/models"
)

// evictionPolicy bounds the number of live sessions a single user may hold.
type evictionPolicy struct {
	maxPerUser int
}

// makeRoom removes the user's oldest sessions until one more can be inserted
// without exceeding the limit. Age is CreatedAt; equal timestamps fall back to
// insertion order. The removed sessions are returned oldest first.
func (p evictionPolicy) makeRoom(st *store, userID string) []*models.Session {
	current := st.sessionsForUser(userID)
	overflow := len(current) - p.maxPerUser + 1
	if overflow <= 0 {
		return nil
	}

	slices.SortStableFunc(current, func(a, b *models.Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	evicted := current[:overflow]
	for _, s := range evicted {
		st.removeByID(s.ID)
	}
	return evicted
}
