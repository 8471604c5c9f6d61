package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/cache"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/metrics"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/session"
	"gorm.io/gorm"
)

const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

// Account is the credential record behind a user.
type Account struct {
	ID              string `gorm:"primaryKey;size:64"`
	Email           string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string `gorm:"not null"`
	DisplayName     string `gorm:"size:255"`
	EmailVerified   bool   `gorm:"not null;default:false"`
	EmailVerifiedAt *time.Time
	Disabled        bool `gorm:"not null;default:false"`
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides the gorm default.
func (Account) TableName() string {
	return "accounts"
}

// User returns the public view of the account.
func (a Account) User() models.User {
	return models.User{ID: a.ID, FullName: a.DisplayName, Email: a.Email}
}

// Mailer sends account emails.
type Mailer interface {
	SendVerificationEmail(toEmail, toName, token string) error
	SendPasswordResetEmail(toEmail, toName, token string) error
	SendWelcomeEmail(toEmail, toName string) error
}

// Config holds token settings for the auth service.
type Config struct {
	JWTSecret          string
	JWTExpirationHours int
}

// Service signs users up and in, and announces session transitions on a hub.
type Service struct {
	db        *gorm.DB
	cache     *cache.Client
	blacklist *TokenBlacklist
	mailer    Mailer
	hub       *session.Hub
	metrics   *metrics.Metrics
	cfg       Config
	validate  *validator.Validate
	log       logger.Logger
	now       func() time.Time
}

// NewService creates a new auth service
func NewService(db *gorm.DB, cacheClient *cache.Client, mailer Mailer, hub *session.Hub, m *metrics.Metrics, cfg Config, log logger.Logger) *Service {
	return &Service{
		db:        db,
		cache:     cacheClient,
		blacklist: NewTokenBlacklist(cacheClient),
		mailer:    mailer,
		hub:       hub,
		metrics:   m,
		cfg:       cfg,
		validate:  validator.New(),
		log:       log,
		now:       time.Now,
	}
}

// Migrate creates the accounts table.
func (s *Service) Migrate() error {
	return s.db.AutoMigrate(&Account{})
}

// Blacklist exposes the revoked-token list for the JWT middleware.
func (s *Service) Blacklist() *TokenBlacklist {
	return s.blacklist
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) checkEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return domain.NewAuthError(domain.ErrCodeInvalidEmail)
	}
	return nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*Account, error) {
	var acc Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewUnavailableError(err)
	}
	return &acc, nil
}

func (s *Service) findByID(ctx context.Context, id string) (*Account, error) {
	var acc Account
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("account")
	}
	if err != nil {
		return nil, domain.NewUnavailableError(err)
	}
	return &acc, nil
}

// credentials returns the account matching email and password.
func (s *Service) credentials(ctx context.Context, email, password string) (*Account, error) {
	email = normalizeEmail(email)
	if err := s.checkEmail(email); err != nil {
		return nil, err
	}
	acc, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil || !CheckPassword(acc.PasswordHash, password) {
		return nil, domain.NewAuthError(domain.ErrCodeInvalidCredentials)
	}
	if acc.Disabled {
		return nil, domain.NewAuthError(domain.ErrCodeUserDisabled)
	}
	return acc, nil
}

func (s *Service) issueToken(ctx context.Context, prefix, accountID string, ttl time.Duration) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", domain.NewInternalError(err)
	}
	key := fmt.Sprintf("%s:%s", prefix, HashToken(token))
	if err := s.cache.Set(ctx, key, accountID, ttl); err != nil {
		return "", domain.NewUnavailableError(err)
	}
	return token, nil
}

func (s *Service) redeemToken(ctx context.Context, prefix, token string) (string, error) {
	key := fmt.Sprintf("%s:%s", prefix, HashToken(token))
	accountID, err := s.cache.Take(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return "", domain.NewBadRequestError("Link inválido ou expirado.")
	}
	if err != nil {
		return "", domain.NewUnavailableError(err)
	}
	return accountID, nil
}

// SignUp creates an account pending email verification and sends the
// verification link. The caller is not signed in.
func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if err := s.checkEmail(email); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.NewValidationError("Informe seu nome completo.")
	}
	if err := ValidateNewPassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewAuthError(domain.ErrCodeEmailInUse)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	acc := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
	}
	if err := s.db.WithContext(ctx).Create(&acc).Error; err != nil {
		return nil, domain.NewUnavailableError(err)
	}
	s.metrics.RecordUserRegistered()

	if err := s.sendVerification(ctx, &acc); err != nil {
		s.log.Warn("verification email not sent", "account_id", acc.ID, "error", err)
	}

	u := acc.User()
	return &u, nil
}

func (s *Service) sendVerification(ctx context.Context, acc *Account) error {
	token, err := s.issueToken(ctx, "email_verify", acc.ID, verificationTTL)
	if err != nil {
		return err
	}
	return s.mailer.SendVerificationEmail(acc.Email, acc.DisplayName, token)
}

// SignIn checks credentials and returns a session token. Unverified
// accounts are rejected with EMAIL_NOT_VERIFIED.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.AuthResponse, session.Session, error) {
	acc, err := s.credentials(ctx, email, password)
	if err == nil && !acc.EmailVerified {
		err = domain.NewAuthError(domain.ErrCodeEmailNotVerified)
	}
	if err != nil {
		s.metrics.RecordLoginAttempt(false)
		return nil, session.Session{}, err
	}

	token, err := GenerateJWT(acc.ID, acc.Email, acc.DisplayName, s.cfg.JWTSecret, s.cfg.JWTExpirationHours)
	if err != nil {
		return nil, session.Session{}, domain.NewInternalError(err)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(acc).Update("last_login_at", now).Error; err != nil {
		s.log.Warn("failed to record last login", "account_id", acc.ID, "error", err)
	}
	s.metrics.RecordLoginAttempt(true)

	sess := session.Session{
		UserID:    acc.ID,
		Email:     acc.Email,
		Name:      acc.DisplayName,
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour),
	}
	s.hub.Publish(ctx, session.Event{Kind: session.SignedIn, Session: sess, At: now})

	u := acc.User()
	return &models.AuthResponse{Token: token, User: &u}, sess, nil
}

// Authenticate turns a bearer token into a session.
func (s *Service) Authenticate(ctx context.Context, token string) (session.Session, error) {
	claims, err := ValidateJWTWithBlacklist(ctx, token, s.cfg.JWTSecret, s.blacklist)
	if err != nil {
		return session.Session{}, domain.NewUnauthorizedError()
	}
	sess := session.Session{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Token:  token,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// SignOut revokes the session token until it would have expired.
func (s *Service) SignOut(ctx context.Context, sess session.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if sess.ExpiresAt.IsZero() {
		ttl = time.Duration(s.cfg.JWTExpirationHours) * time.Hour
	}
	if err := s.blacklist.Add(ctx, sess.Token, ttl); err != nil {
		return domain.NewUnavailableError(err)
	}
	s.hub.Publish(ctx, session.Event{Kind: session.SignedOut, Session: sess, At: s.now()})
	return nil
}

// Me returns the profile behind the session.
func (s *Service) Me(ctx context.Context, sess session.Session) (*models.User, error) {
	acc, err := s.findByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	u := acc.User()
	return &u, nil
}

// VerifyEmail redeems a verification token and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	accountID, err := s.redeemToken(ctx, "email_verify", token)
	if err != nil {
		return err
	}
	acc, err := s.findByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acc.EmailVerified {
		return nil
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(acc).Updates(map[string]interface{}{
		"email_verified":    true,
		"email_verified_at": now,
	}).Error
	if err != nil {
		return domain.NewUnavailableError(err)
	}

	if err := s.mailer.SendWelcomeEmail(acc.Email, acc.DisplayName); err != nil {
		s.log.Warn("welcome email not sent", "account_id", acc.ID, "error", err)
	}
	return nil
}

// ResendVerification sends a new verification link. The unverified user
// proves ownership with their password.
func (s *Service) ResendVerification(ctx context.Context, email, password string) error {
	acc, err := s.credentials(ctx, email, password)
	if err != nil {
		return err
	}
	if acc.EmailVerified {
		return domain.NewBadRequestError("Este e-mail já foi verificado.")
	}
	if err := s.sendVerification(ctx, acc); err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return err
		}
		return domain.NewUnavailableError(err)
	}
	return nil
}

// SendPasswordReset emails a reset link. Unknown addresses succeed silently.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.checkEmail(email); err != nil {
		return err
	}
	acc, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acc == nil {
		s.log.Debug("password reset requested for unknown email")
		return nil
	}

	token, err := s.issueToken(ctx, "password_reset", acc.ID, resetTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordResetEmail(acc.Email, acc.DisplayName, token); err != nil {
		return domain.NewUnavailableError(err)
	}
	return nil
}

// ResetPassword redeems a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := ValidateNewPassword(req.Password, req.ConfirmPassword); err != nil {
		return err
	}
	accountID, err := s.redeemToken(ctx, "password_reset", req.Token)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, accountID, req.Password)
}

// ChangePassword re-authenticates with the old password before replacing it.
func (s *Service) ChangePassword(ctx context.Context, sess session.Session, req models.ChangePasswordRequest) error {
	if err := ValidateNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	acc, err := s.findByID(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if _, err := s.credentials(ctx, acc.Email, req.OldPassword); err != nil {
		return err
	}
	return s.setPassword(ctx, acc.ID, req.NewPassword)
}

func (s *Service) setPassword(ctx context.Context, accountID, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return domain.NewInternalError(err)
	}
	res := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", accountID).Update("password_hash", hash)
	if res.Error != nil {
		return domain.NewUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("account")
	}
	return nil
}

// Disable deactivates the account and ends the current session.
func (s *Service) Disable(ctx context.Context, sess session.Session) error {
	res := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", sess.UserID).Update("disabled", true)
	if res.Error != nil {
		return domain.NewUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("account")
	}
	return s.SignOut(ctx, sess)
}
