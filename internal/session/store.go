package session

import (
	"slices"
	"time"

	"github.com/charlesng35/sessionkit/internal/models"
)

// store is the session table plus its lookup indexes. It performs no locking
// and no expiry checks; the Manager serialises access and decides liveness.
type store struct {
	sessions map[string]*models.Session
	tokens   map[string]string   // access token -> session id
	refresh  map[string]string   // refresh token -> session id
	users    map[string][]string // user id -> session ids in insertion order
}

func newStore() *store {
	st := &store{}
	st.reset()
	return st
}

func (st *store) reset() {
	st.sessions = make(map[string]*models.Session)
	st.tokens = make(map[string]string)
	st.refresh = make(map[string]string)
	st.users = make(map[string][]string)
}

func (st *store) insert(s *models.Session) {
	st.sessions[s.ID] = s
	st.tokens[s.Token] = s.ID
	st.refresh[s.RefreshToken] = s.ID
	st.users[s.UserID] = append(st.users[s.UserID], s.ID)
}

// removeByID drops the session from the table and every index.
func (st *store) removeByID(id string) (*models.Session, bool) {
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}

	delete(st.sessions, id)
	delete(st.tokens, s.Token)
	delete(st.refresh, s.RefreshToken)

	ids := st.users[s.UserID]
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(st.users, s.UserID)
	} else {
		st.users[s.UserID] = ids
	}

	return s, true
}

// rotateToken swaps the access token index entry for s to token.
func (st *store) rotateToken(s *models.Session, token string) {
	delete(st.tokens, s.Token)
	s.Token = token
	st.tokens[token] = s.ID
}

func (st *store) byID(id string) (*models.Session, bool) {
	s, ok := st.sessions[id]
	return s, ok
}

func (st *store) byToken(token string) (*models.Session, bool) {
	id, ok := st.tokens[token]
	if !ok {
		return nil, false
	}
	return st.byID(id)
}

func (st *store) byRefreshToken(token string) (*models.Session, bool) {
	id, ok := st.refresh[token]
	if !ok {
		return nil, false
	}
	return st.byID(id)
}

// idsForUser returns a copy of the user's session ids, oldest insert first.
func (st *store) idsForUser(userID string) []string {
	return slices.Clone(st.users[userID])
}

// sessionsForUser resolves the user's sessions in insertion order.
func (st *store) sessionsForUser(userID string) []*models.Session {
	ids := st.users[userID]
	out := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := st.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// inUse reports whether value is already taken as an id, access token or
// refresh token by any live session.
func (st *store) inUse(value string) bool {
	if _, ok := st.sessions[value]; ok {
		return true
	}
	if _, ok := st.tokens[value]; ok {
		return true
	}
	_, ok := st.refresh[value]
	return ok
}

func (st *store) len() int {
	return len(st.sessions)
}

func (st *store) userCount() int {
	return len(st.users)
}

// perUserCounts returns one count per distinct user, in no particular order.
func (st *store) perUserCounts() []int {
	counts := make([]int, 0, len(st.users))
	for _, ids := range st.users {
		counts = append(counts, len(ids))
	}
	return counts
}

// expired collects ids of sessions whose access token lapsed before now.
func (st *store) expired(now time.Time) []string {
	var ids []string
	for id, s := range st.sessions {
		if s.Expired(now) {
			ids = append(ids, id)
		}
	}
	return ids
}
