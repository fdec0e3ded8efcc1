package sessions

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/social-connect/internal/errors"
	"github.com/jrsteele09/social-connect/internal/utils"
	"github.com/jrsteele09/social-connect/kvstore"
	"github.com/rs/zerolog/log"
)

// Service owns the lifecycle of the per-browser auth session
type Service struct {
	store   kvstore.Repo
	decoder TokenDecoder
}

func NewService(store kvstore.Repo, decoder TokenDecoder) *Service {
	if decoder == nil {
		decoder = UnverifiedDecoder{}
	}
	return &Service{store: store, decoder: decoder}
}

// Login decodes the bearer token into a User and persists the session.
// Fields missing from the token are taken from fallback (the login response body).
// A token that cannot be decoded clears any previous session.
func (s *Service) Login(ctx context.Context, browserID, token string, fallback *User) (*User, error) {
	claims, err := s.decoder.Decode(ctx, token)
	if err != nil {
		log.Err(err).Str("browser_id", browserID).Msg("Failed to decode token")
		if clearErr := s.Logout(ctx, browserID); clearErr != nil {
			log.Err(clearErr).Msg("Failed to clear session after bad token")
		}
		return nil, err
	}

	if fallback == nil {
		fallback = &User{}
	}
	user := &User{
		ID:       utils.FirstNonEmpty(claims.String("sub"), claims.String("id"), fallback.ID),
		Email:    utils.FirstNonEmpty(claims.String("email"), fallback.Email),
		Username: utils.FirstNonEmpty(claims.String("username"), fallback.Username),
		Role:     utils.FirstNonEmpty(claims.String("role"), fallback.Role),
	}
	if user.ID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "token has no subject")
	}

	state := State{User: user, Token: token, IsAuthenticated: true}
	if err := s.save(ctx, browserID, state); err != nil {
		return nil, err
	}
	return user, nil
}

// Current returns the persisted state. A browser without a session gets an
// unauthenticated, non-nil State.
func (s *Service) Current(ctx context.Context, browserID string) (*State, error) {
	raw, found, err := s.store.Get(ctx, browserID, StorageKey)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service Current] load session")
	}
	if !found {
		return &State{}, nil
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		log.Err(err).Str("browser_id", browserID).Msg("Discarding unreadable session")
		return &State{}, s.Logout(ctx, browserID)
	}
	return &state, nil
}

// Logout removes the session. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, browserID string) error {
	return errors.Wrapf(s.store.Delete(ctx, browserID, StorageKey), "[Service Logout]")
}

func (s *Service) save(ctx context.Context, browserID string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.Wrapf(err, "[Service save] marshal session")
	}
	return errors.Wrapf(s.store.Set(ctx, browserID, StorageKey, string(raw)), "[Service save]")
}
