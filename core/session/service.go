package session

import "sync"

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Service wraps a Repository with a per-conversation mutual-exclusion
// discipline: two webhook deliveries for the same channel id (provider
// retries, out-of-order callbacks) never run their
// load -> transition -> persist sequence concurrently, while distinct
// conversations proceed fully in parallel.
type Service struct {
	repo Repository

	mu    sync.Mutex
	locks map[string]*sessionLock
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		locks: make(map[string]*sessionLock),
	}
}

func (svc *Service) Repo() Repository { return svc.repo }

// Do runs fn while holding the lock for (channel, channelID).
// Locks are reference counted and released once no handler needs them, so the
// table does not grow with conversation history.
func (svc *Service) Do(channel Channel, channelID string, fn func(repo Repository) error) error {
	key := string(channel) + ":" + channelID

	svc.mu.Lock()
	l, ok := svc.locks[key]
	if !ok {
		l = &sessionLock{}
		svc.locks[key] = l
	}
	l.refs++
	svc.mu.Unlock()

	l.mu.Lock()
	err := fn(svc.repo)
	l.mu.Unlock()

	svc.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(svc.locks, key)
	}
	svc.mu.Unlock()

	return err
}
