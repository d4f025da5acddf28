package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ecommerce/internal/db/dbtest"
	"github.com/Skotchmaster/ecommerce/internal/hash"
	"github.com/Skotchmaster/ecommerce/internal/models"
	"github.com/Skotchmaster/ecommerce/internal/repo"
)

type sentEvent struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []sentEvent
	err  error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, sentEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) events() []sentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentEvent(nil), p.sent...)
}

type testEnv struct {
	repo    *repo.GormRepo
	pub     *recordingPublisher
	catalog *CatalogService
	auth    *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := &repo.GormRepo{DB: dbtest.New(t)}
	pub := &recordingPublisher{}
	return &testEnv{
		repo:    r,
		pub:     pub,
		catalog: &CatalogService{Repo: r, Events: pub},
		auth:    &AuthService{Repo: r, Events: pub, JWTSecret: []byte("test-jwt-secret")},
	}
}

func (env *testEnv) createUser(t *testing.T, email, password string, admin bool) *models.User {
	t.Helper()

	pw, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Email: email, Password: pw, IsAdmin: admin}
	require.NoError(t, env.repo.CreateUser(context.Background(), u))
	return u
}

func ptr[T any](v T) *T { return &v }

var errBroker = errors.New("broker unavailable")
