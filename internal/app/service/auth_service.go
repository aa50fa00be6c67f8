package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/ikkim/localbiz-backend/pkg/redis"
	"github.com/ikkim/localbiz-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = apperrors.New(apperrors.KindConflict, apperrors.AuthEmailAlreadyExists, "email already exists")
	ErrInvalidCredentials = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthInvalidCredentials, "invalid email or password")
	ErrInvalidToken       = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenInvalid, "invalid token")
	ErrExpiredToken       = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenExpired, "token expired")
	ErrRevokedToken       = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenRevoked, "token has been revoked")
	ErrWeakPassword       = apperrors.Validation(apperrors.ValidationInvalidInput, "password must be at least 8 characters")
	ErrMissingName        = apperrors.Validation(apperrors.ValidationRequired, "name is required")
	ErrInvalidEmail       = apperrors.Validation(apperrors.ValidationInvalidFormat, "email is invalid")
)

const (
	minPasswordLength     = 8
	referralCodeAttempts  = 5
	defaultReferralLength = 8
)

// ReferralHandler redeems a referral code for a freshly registered user.
type ReferralHandler interface {
	HandleReferral(ctx context.Context, referralCode string, referredID uint) (*ReferralResult, error)
}

type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	ReferralCode string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
}

type AuthConfig struct {
	JWTSecret          string
	AccessExpiry       time.Duration
	RefreshExpiry      time.Duration
	ReferralCodeLength int
}

type authService struct {
	users     repository.UserRepository
	referrals ReferralHandler
	blacklist redis.TokenBlacklist
	cfg       AuthConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewAuthService builds the auth service. blacklist may be nil, in which
// case logout only succeeds client side.
func NewAuthService(
	users repository.UserRepository,
	referrals ReferralHandler,
	blacklist redis.TokenBlacklist,
	cfg AuthConfig,
	log *logger.Logger,
) AuthService {
	if cfg.ReferralCodeLength <= 0 {
		cfg.ReferralCodeLength = defaultReferralLength
	}
	return &authService{
		users:     users,
		referrals: referrals,
		blacklist: blacklist,
		cfg:       cfg,
		log:       log.Component("auth_service"),
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	code := NormalizeReferralCode(input.ReferralCode)

	s.log.Info("Attempting user registration", logger.Fields{
		"email":         email,
		"with_referral": code != "",
	})

	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, nil, ErrWeakPassword
	}
	if name == "" {
		return nil, nil, ErrMissingName
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.Store(err)
	}
	if existing != nil {
		s.log.Warn("Registration failed: email already exists", logger.Fields{"email": email})
		return nil, nil, ErrEmailAlreadyExists
	}

	// Reject a bad code before creating the account.
	if code != "" {
		ok, err := s.users.ReferralCodeExists(ctx, code)
		if err != nil {
			return nil, nil, apperrors.Store(err)
		}
		if !ok {
			return nil, nil, ErrInvalidReferralCode
		}
	}

	hashed, err := util.HashPassword(input.Password)
	if err != nil {
		s.log.Error("Failed to hash password", err, logger.Fields{"email": email})
		return nil, nil, err
	}

	ownCode, err := s.newReferralCode(ctx)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Role:         model.RoleUser,
		ReferralCode: ownCode,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, nil, ErrEmailAlreadyExists
		}
		return nil, nil, apperrors.Store(err)
	}

	if code != "" && s.referrals != nil {
		if _, err := s.referrals.HandleReferral(ctx, code, user.ID); err != nil {
			// The account stands even if the referral lost a race.
			s.log.Warn("Referral at registration failed", logger.Fields{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		} else if refreshed, err := s.users.FindByID(ctx, user.ID); err == nil {
			user = refreshed
		}
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("User registered successfully", logger.Fields{
		"user_id": user.ID,
		"email":   email,
	})
	return user, tokens, nil
}

func (s *authService) newReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := util.GenerateReferralCode(s.cfg.ReferralCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := s.users.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", apperrors.Store(err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.New(apperrors.KindInternal, apperrors.InternalServerError, "could not allocate a referral code")
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error) {
	email = normalizeEmail(email)
	s.log.Info("Login attempt", logger.Fields{"email": email})

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("Login failed: user not found", logger.Fields{"email": email})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, apperrors.Store(err)
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		s.log.Warn("Login failed: invalid password", logger.Fields{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("User logged in successfully", logger.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := s.parse(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.RefreshToken {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, apperrors.Store(err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	if s.blacklist != nil {
		if err := s.blacklist.Revoke(ctx, refreshToken, claims.RemainingLifetime(s.now())); err != nil {
			s.log.Warn("Failed to revoke rotated refresh token", logger.Fields{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}
	return tokens, nil
}

// Logout revokes both tokens until they would have expired anyway. An
// unparseable refresh token is ignored.
func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if s.blacklist == nil {
		s.log.Debug("Logout without token blacklist")
		return nil
	}

	now := s.now()
	claims, err := util.ValidateToken(accessToken, s.cfg.JWTSecret)
	if err != nil {
		return ErrInvalidToken
	}
	if err := s.blacklist.Revoke(ctx, accessToken, claims.RemainingLifetime(now)); err != nil {
		return apperrors.Store(err)
	}

	if refreshToken != "" {
		if rc, err := util.ValidateToken(refreshToken, s.cfg.JWTSecret); err == nil && rc.UserID == claims.UserID {
			if err := s.blacklist.Revoke(ctx, refreshToken, rc.RemainingLifetime(now)); err != nil {
				return apperrors.Store(err)
			}
		}
	}

	s.log.Info("User logged out", logger.Fields{"user_id": claims.UserID})
	return nil
}

func (s *authService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("User not found", logger.Fields{"user_id": id})
			return nil, ErrUserNotFound
		}
		return nil, apperrors.Store(err)
	}
	return user, nil
}

func (s *authService) parse(ctx context.Context, token string) (*util.Claims, error) {
	claims, err := util.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsRevoked(ctx, token)
		if err != nil {
			return nil, apperrors.Store(err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.cfg.JWTSecret,
		s.cfg.AccessExpiry,
		s.cfg.RefreshExpiry,
	)
	if err != nil {
		s.log.Error("Failed to generate tokens", err, logger.Fields{"user_id": user.ID})
		return nil, err
	}
	return tokens, nil
}
