// Package auth verifies login credentials against the configured user directory.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charlesng35/sessionkit/internal/models"
	"github.com/charlesng35/sessionkit/pkg/crypto"
)

const (
	defaultLockoutThreshold = 5
	defaultLockoutDuration  = 15 * time.Minute
)

var (
	// ErrInvalidCredentials is returned when the supplied identity/password pair is invalid.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked signals that the user has exceeded the permitted failed attempts.
	ErrAccountLocked = errors.New("auth: account locked")
)

// Account is one directory entry. PasswordHash is a bcrypt hash.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Permissions  []string
	FirstName    string
	LastName     string
}

// DirectoryConfig defines tunable behaviour for the directory.
type DirectoryConfig struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	Clock            func() time.Time
}

// AuthenticateInput contains the credentials presented at login.
type AuthenticateInput struct {
	Identifier string
	Password   string
}

type lockState struct {
	failedAttempts int
	lockedUntil    time.Time
}

// Directory implements username/password authentication over a fixed set of
// accounts with account lockout controls. Lockout state lives in memory.
type Directory struct {
	clock     func() time.Time
	threshold int
	duration  time.Duration

	accounts map[string]Account // by id
	identity map[string]string  // lower(username|email) -> id

	mu    sync.Mutex
	locks map[string]*lockState
}

// NewDirectory builds a directory with sane defaults. Ids, usernames and
// emails must be unique across accounts.
func NewDirectory(accounts []Account, cfg DirectoryConfig) (*Directory, error) {
	threshold := cfg.LockoutThreshold
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}

	duration := cfg.LockoutDuration
	if duration <= 0 {
		duration = defaultLockoutDuration
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	d := &Directory{
		clock:     clock,
		threshold: threshold,
		duration:  duration,
		accounts:  make(map[string]Account, len(accounts)),
		identity:  make(map[string]string, 2*len(accounts)),
		locks:     make(map[string]*lockState),
	}

	for _, acc := range accounts {
		if acc.ID == "" || acc.Username == "" || acc.PasswordHash == "" {
			return nil, errors.New("auth: account id, username and password hash are required")
		}
		if _, dup := d.accounts[acc.ID]; dup {
			return nil, fmt.Errorf("auth: duplicate account id %q", acc.ID)
		}
		d.accounts[acc.ID] = acc

		for _, key := range []string{acc.Username, acc.Email} {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			if owner, dup := d.identity[key]; dup && owner != acc.ID {
				return nil, fmt.Errorf("auth: identity %q is used by more than one account", key)
			}
			d.identity[key] = acc.ID
		}
	}

	return d, nil
}

// Authenticate verifies the supplied credentials and returns the associated user when successful.
func (d *Directory) Authenticate(input AuthenticateInput) (models.User, error) {
	identity := strings.ToLower(strings.TrimSpace(input.Identifier))
	if identity == "" || input.Password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	id, ok := d.identity[identity]
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	acc := d.accounts[id]

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	state := d.locks[id]
	if state != nil && state.lockedUntil.After(now) {
		return models.User{}, ErrAccountLocked
	}

	// Unlock the account if the lockout duration has elapsed.
	if state != nil && !state.lockedUntil.IsZero() {
		delete(d.locks, id)
		state = nil
	}

	if !crypto.VerifyPassword(acc.PasswordHash, input.Password) {
		return models.User{}, d.handleFailedAttempt(id, state, now)
	}

	delete(d.locks, id)
	return acc.user(), nil
}

// Lookup returns the user for id without checking credentials.
func (d *Directory) Lookup(id string) (models.User, bool) {
	acc, ok := d.accounts[id]
	if !ok {
		return models.User{}, false
	}
	return acc.user(), true
}

func (d *Directory) handleFailedAttempt(id string, state *lockState, now time.Time) error {
	if state == nil {
		state = &lockState{}
		d.locks[id] = state
	}
	state.failedAttempts++

	if state.failedAttempts >= d.threshold {
		state.lockedUntil = now.Add(d.duration)
		return ErrAccountLocked
	}
	return ErrInvalidCredentials
}

func (a Account) user() models.User {
	user := models.User{
		ID:        a.ID,
		Username:  a.Username,
		Email:     strings.ToLower(a.Email),
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
	}
	if len(a.Permissions) > 0 {
		user.Permissions = append([]string(nil), a.Permissions...)
	}
	return user
}
