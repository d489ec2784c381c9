package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/luminaria/luminaria-api/internal/domain/ledger"
	"github.com/luminaria/luminaria-api/internal/pkg/jwt"
	"github.com/luminaria/luminaria-api/internal/pkg/password"
)

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service struct {
	repo          *Repository
	ledger        *ledger.Service
	tokens        *jwt.Service
	startingGrant int64
}

func NewService(repo *Repository, ledgerSvc *ledger.Service, tokens *jwt.Service, startingGrant int64) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, tokens: tokens, startingGrant: startingGrant}
}

// Register creates the user, opens their Luminaria account and, when a
// starting grant is configured, credits it as a regular earn transaction
// so the grant shows up in the user's history like any other credit.
func (s *Service) Register(ctx context.Context, email, plainPassword, role string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	// Admin cannot be self-assigned; anything but creator falls back to member.
	if role != RoleCreator {
		role = RoleMember
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatorLevel: 1,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := s.ledger.EnsureAccount(ctx, u.ID); err != nil {
		return nil, err
	}

	if s.startingGrant > 0 {
		_, err := s.ledger.Apply(ctx, u.ID, ledger.TypeEarn, s.startingGrant, ledger.Classification{
			UserRole:    u.Role,
			Category:    "signup",
			Subcategory: "grant",
			ActionType:  "registration",
			Description: "Welcome grant",
		}, ledger.Reference{ID: u.ID.String(), Type: "signup"}, nil)
		if err != nil {
			// The account exists; the grant can be re-issued manually.
			log.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to credit starting grant")
		}
	}

	log.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("user registered")
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, plainPassword string) (*User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. Role is re-read
// from the database so a role change takes effect on next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return s.issueTokens(u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SetCreatorLevel(ctx context.Context, id uuid.UUID, level int) error {
	return s.repo.UpdateCreatorLevel(ctx, id, level)
}

// SetRole changes a user's role. Access tokens already issued keep the old
// role until they expire or are refreshed.
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return err
	}
	log.Info().Str("user_id", id.String()).Str("role", role).Msg("user role updated")
	return nil
}

func (s *Service) issueTokens(u *User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
