package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/courio/courio/internal/domain"
	"github.com/courio/courio/internal/handlers"
	"github.com/courio/courio/internal/middleware"
	"github.com/courio/courio/internal/pubsub"
)

// fakeUserRepo is an in-memory domain.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	next  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, user.Email)
		}
	}
	f.next++
	created := *user
	created.ID = fmt.Sprintf("user-%d", f.next)
	f.users[created.ID] = &created
	return &created, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
}

func (f *fakeUserRepo) ListOthers(_ context.Context, selfID string) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for id, u := range f.users {
		if id != selfID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// memMessageStore is an in-memory domain.MessageRepository.
type memMessageStore struct {
	mu   sync.Mutex
	msgs map[string]domain.Message
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{msgs: make(map[string]domain.Message)}
}

func (s *memMessageStore) Create(_ context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	msg, err := domain.NewMessage(senderID, receiverID, content)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.msgs[msg.ID] = *msg
	s.mu.Unlock()
	return msg, nil
}

func (s *memMessageStore) Get(_ context.Context, id string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.msgs[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, id)
	}
	return &msg, nil
}

func (s *memMessageStore) SetStatus(_ context.Context, id string, status domain.Status) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.msgs[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, id)
	}
	if !msg.Status.Advances(status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, msg.Status, status)
	}
	msg.Status = status
	s.msgs[id] = msg
	return &msg, nil
}

func (s *memMessageStore) History(_ context.Context, userA, userB string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, msg := range s.msgs {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// nopPublisher discards events; handler tests exercise HTTP behavior only.
type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, pubsub.Message) error { return nil }
func (nopPublisher) Close() error                                  { return nil }

// newContext builds an Echo context with the validator installed and an
// optional authenticated user.
func newContext(t *testing.T, method, path, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = handlers.NewValidator()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.UserContextKey, user)
	}
	return c, rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return httpErr.Code
}
