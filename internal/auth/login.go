package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/amingeek/task-manager/internal/client"
	"github.com/amingeek/task-manager/internal/models"
)

var errEmptyToken = errors.New("backend returned an empty token")

// Login exchanges credentials for a session. The store reports loading while the
// request is in flight and unauthenticated when it fails; nothing is persisted on failure.
func (s *Store) Login(ctx context.Context, username, password string) (Session, error) {
	s.mu.Lock()
	gen, notify := s.beginLocked()
	s.mu.Unlock()
	notify()

	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		if client.KindOf(err) == client.KindAuthentication {
			err = ErrInvalidCredentials
		}
		return s.fail(gen, rejectedInput(err))
	}
	return s.complete(ctx, gen, res)
}

// complete attaches a profile to res and commits both at once.
func (s *Store) complete(ctx context.Context, gen uint64, res *models.AuthResult) (Session, error) {
	if res == nil || res.Token == "" {
		return s.fail(gen, errEmptyToken)
	}
	user := res.User
	if user == nil {
		var err error
		if user, err = s.api.Me(ctx, res.Token); err != nil {
			return s.fail(gen, err)
		}
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return Session{}, ErrSessionChanged
	}
	notify := s.commitLocked(res.Token, user, true)
	s.mu.Unlock()
	notify()

	s.log.Infow("session started", "user_id", user.ID)
	return s.Snapshot(), nil
}

func (s *Store) fail(gen uint64, err error) (Session, error) {
	s.mu.Lock()
	notify := s.failLocked(gen)
	s.mu.Unlock()
	notify()
	return Session{}, err
}

// rejectedInput reports a 400 from the account endpoints as a validation failure,
// keeping the server's message.
func rejectedInput(err error) error {
	var ce *client.Error
	if !errors.As(err, &ce) || ce.Status != http.StatusBadRequest {
		return err
	}
	v := *ce
	v.Kind = client.KindValidation
	return &v
}
