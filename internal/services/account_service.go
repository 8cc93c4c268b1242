package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/volunteerhub/backend/internal/apperrors"
	"github.com/volunteerhub/backend/internal/auth/service"
	"github.com/volunteerhub/backend/internal/metrics"
	"github.com/volunteerhub/backend/internal/models"
	"go.uber.org/zap"
)

// Client-facing messages of the account flows
const (
	MsgRegisterFieldsRequired = "name, email, and password are required"
	MsgLoginFieldsRequired    = "email and password are required"
	MsgInvalidEmail           = "invalid email format"
	MsgPasswordTooLong        = "password must be at most 72 bytes long"
	MsgAccountExists          = "account exists"
	MsgInvalidCredentials     = "invalid credentials"
	MsgUserNotFound           = "user not found"
)

// UserRepository is the interface that wraps methods for credential record data access
type UserRepository interface {
	// Method Create inserts a new user.
	//
	// "user" parameter must carry a normalized email and a password hash.
	//
	// If a user with the same email already exists, models.ErrDuplicateEmail is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by normalized email.
	//
	// If user with such email does not exist, models.ErrUserNotFound is returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, models.ErrUserNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method UpdateRole sets the role of a user.
	//
	// If user with such ID does not exist, models.ErrUserNotFound is returned.
	UpdateRole(ctx context.Context, id string, role models.Role) error
}

// PasswordHasher is the interface that wraps password hashing and verification
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// TokenIssuer is the interface that wraps session token issuance
type TokenIssuer interface {
	Issue(claims service.Claims) (string, error)
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// accountService implements AccountService
type accountService struct {
	userRepo UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	logger   *zap.Logger
	newID    func() string

	// decoyOnce guards decoyHash, a hash verified against when the email is unknown
	// so a missing account costs the same as a wrong password
	decoyOnce sync.Once
	decoyHash string
}

// NewAccountService creates a new account service
func NewAccountService(
	userRepo UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	logger *zap.Logger,
) *accountService {
	return &accountService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Register creates a new account and issues its first session token
func (s *accountService) Register(ctx context.Context, req *models.RegisterRequest) (user *models.PublicUser, token string, err error) {
	defer func() { observe("register", err) }()

	name := strings.TrimSpace(req.Name)
	email := models.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, "", apperrors.InvalidInput(MsgRegisterFieldsRequired)
	}
	if !emailRegex.MatchString(email) {
		return nil, "", apperrors.InvalidInput(MsgInvalidEmail)
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Infrastructure(err)
	}
	if exists {
		return nil, "", apperrors.Conflict(MsgAccountExists)
	}

	passwordHash, err := s.hash(req.Password)
	if err != nil {
		if errors.Is(err, service.ErrPasswordTooLong) {
			return nil, "", apperrors.InvalidInput(MsgPasswordTooLong)
		}
		return nil, "", apperrors.Infrastructure(err)
	}

	record := &models.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser, // Default role
	}

	// The store's unique index is the real guard against concurrent registrations
	if err := s.userRepo.Create(ctx, record); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, "", apperrors.Conflict(MsgAccountExists)
		}
		return nil, "", apperrors.Infrastructure(err)
	}

	token, err = s.tokens.Issue(service.ClaimsForUser(record))
	if err != nil {
		return nil, "", apperrors.Infrastructure(err)
	}

	s.logger.Info("user registered", zap.String("userId", record.ID))
	return record.Public(), token, nil
}

// Login verifies credentials and issues a session token.
// Unknown emails and wrong passwords fail identically.
func (s *accountService) Login(ctx context.Context, req *models.LoginRequest) (user *models.PublicUser, token string, err error) {
	defer func() { observe("login", err) }()

	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", apperrors.InvalidInput(MsgLoginFieldsRequired)
	}

	record, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.verifyDecoy(req.Password)
			return nil, "", apperrors.Unauthenticated(MsgInvalidCredentials)
		}
		return nil, "", apperrors.Infrastructure(err)
	}

	ok, err := s.verify(req.Password, record.PasswordHash)
	if err != nil {
		return nil, "", apperrors.Infrastructure(err)
	}
	if !ok {
		return nil, "", apperrors.Unauthenticated(MsgInvalidCredentials)
	}

	token, err = s.tokens.Issue(service.ClaimsForUser(record))
	if err != nil {
		return nil, "", apperrors.Infrastructure(err)
	}

	return record.Public(), token, nil
}

// CurrentUser re-fetches the account identified by verified claims
func (s *accountService) CurrentUser(ctx context.Context, claims *service.Claims) (user *models.PublicUser, err error) {
	defer func() { observe("me", err) }()

	if claims == nil || claims.SubjectID == "" {
		return nil, apperrors.Infrastructure(errors.New("current user requested without verified claims"))
	}

	record, err := s.userRepo.GetByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, apperrors.NotFound(MsgUserNotFound)
		}
		return nil, apperrors.Infrastructure(err)
	}

	return record.Public(), nil
}

func (s *accountService) hash(password string) (string, error) {
	start := time.Now()
	defer func() { metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds()) }()
	return s.hasher.Hash(password)
}

func (s *accountService) verify(password, hash string) (bool, error) {
	start := time.Now()
	defer func() { metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds()) }()
	return s.hasher.Verify(password, hash)
}

// verifyDecoy spends a password verification on a throwaway hash
func (s *accountService) verifyDecoy(password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("failed to prepare decoy hash", zap.Error(err))
			return
		}
		s.decoyHash = hash
	})
	if s.decoyHash != "" {
		_, _ = s.verify(password, s.decoyHash)
	}
}

// observe counts an account operation by its result kind
func observe(operation string, err error) {
	result := "success"
	if err != nil {
		result = apperrors.KindOf(err).String()
	}
	metrics.AccountOperationsTotal.WithLabelValues(operation, result).Inc()
}
