package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
)

// memUsers is an in-memory user directory.
type memUsers struct {
	mu    sync.Mutex
	order []string
	byID  map[string]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]domain.User{}}
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Username == user.Username {
			return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("%w: users_email_key", repository.ErrDuplicate)
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = *user
	m.order = append(m.order, user.ID)
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Username == username })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memUsers) find(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if match(user) {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) List(_ context.Context, page repository.Page) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]domain.User, 0, len(m.order))
	for _, id := range m.order {
		if user, ok := m.byID[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *memUsers) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastLogin = &at
	m.byID[id] = user
	return nil
}

// eventLog subscribes to every event type and keeps what it saw.
type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func newEventLog() (events.Dispatcher, *eventLog) {
	d := events.NewInMemoryDispatcher(nil)
	log := &eventLog{}
	for _, t := range events.AllEventTypes {
		d.Subscribe(t, func(_ context.Context, e events.Event) error {
			log.mu.Lock()
			defer log.mu.Unlock()
			log.events = append(log.events, e)
			return nil
		})
	}
	return d, log
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) last() events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}
