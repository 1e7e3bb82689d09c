package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
	jwtutil "github.com/Prasadchowdar/100CroresClub/pkg/jwt"
)

const (
	otpLength = 6
	otpTTL    = 10 * time.Minute
)

var (
	ErrAdminNotFound     = errors.New("admin not found")
	ErrEmailTaken        = repository.ErrEmailTaken
	ErrOTPInvalid        = errors.New("otp invalid or expired")
	ErrInvalidAdminInput = errors.New("invalid admin input")
)

type AdminSignupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminService owns the back-office identity flows. Password and email
// changes go through the OTP gate and land in the audit trail.
type AdminService struct {
	adminRepo  repository.AdminRepository
	otpRepo    repository.OTPRepository
	auditRepo  repository.AuditRepository
	privateKey *rsa.PrivateKey
	clock      Clock
	accessTTL  time.Duration
	logger     *zap.Logger
}

func NewAdminService(
	adminRepo repository.AdminRepository,
	otpRepo repository.OTPRepository,
	auditRepo repository.AuditRepository,
	privateKey *rsa.PrivateKey,
	clock Clock,
	logger *zap.Logger,
) *AdminService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AdminService{
		adminRepo:  adminRepo,
		otpRepo:    otpRepo,
		auditRepo:  auditRepo,
		privateKey: privateKey,
		clock:      clock,
		accessTTL:  defaultAccessTokenTTL,
		logger:     logger,
	}
}

func (s *AdminService) Signup(ctx context.Context, req AdminSignupRequest) (*model.Admin, string, error) {
	if s.privateKey == nil {
		return nil, "", errors.New("private key is nil")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || !strings.Contains(email, "@") || fullName == "" || len(req.Password) < 8 {
		return nil, "", ErrInvalidAdminInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, "", err
	}

	s.writeAudit(ctx, admin.ID, "admin.signup", nil, map[string]interface{}{"email": email})

	token, err := jwtutil.GenerateAccessToken(admin.ID.String(), string(model.UserRoleAdmin), s.privateKey, s.accessTTL)
	if err != nil {
		return nil, "", err
	}

	return admin, token, nil
}

func (s *AdminService) Login(ctx context.Context, email, password string) (*model.Admin, string, error) {
	if s.privateKey == nil {
		return nil, "", errors.New("private key is nil")
	}

	admin, err := s.adminRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := jwtutil.GenerateAccessToken(admin.ID.String(), string(model.UserRoleAdmin), s.privateKey, s.accessTTL)
	if err != nil {
		return nil, "", err
	}

	s.writeAudit(ctx, admin.ID, "admin.login", nil, nil)

	return admin, token, nil
}

func (s *AdminService) GetByID(ctx context.Context, adminID string) (*model.Admin, error) {
	uid, err := uuid.Parse(strings.TrimSpace(adminID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	admin, err := s.adminRepo.FindByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAdminNotFound
	}
	return admin, err
}

// SendOTP issues a fresh code, replacing any pending one for the account.
// Delivery runs out of band; the code is logged at debug level only so
// production logs never carry it at default verbosity.
func (s *AdminService) SendOTP(ctx context.Context, adminID string) (*model.AdminOTP, error) {
	admin, err := s.GetByID(ctx, adminID)
	if err != nil {
		return nil, err
	}

	code, err := randomOTP()
	if err != nil {
		return nil, err
	}

	otp := &model.AdminOTP{
		ID:        uuid.New(),
		Email:     admin.Email,
		OTPCode:   code,
		ExpiresAt: s.clock.Now().UTC().Add(otpTTL),
	}

	if err := s.otpRepo.Replace(ctx, otp); err != nil {
		return nil, err
	}

	s.logger.Debug("otp issued", zap.String("email", admin.Email), zap.String("otp", code))

	return otp, nil
}

// VerifyOTP checks the code without consuming it, so the UI can validate
// before the admin commits to the change.
func (s *AdminService) VerifyOTP(ctx context.Context, adminID, code string) error {
	admin, err := s.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	_, err = s.activeOTP(ctx, admin.Email, code)
	return err
}

func (s *AdminService) ChangePassword(ctx context.Context, adminID, code, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrInvalidAdminInput
	}

	admin, err := s.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	otp, err := s.activeOTP(ctx, admin.Email, code)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.adminRepo.UpdatePasswordHash(ctx, admin.ID, string(hash)); err != nil {
		return err
	}

	_ = s.otpRepo.Consume(ctx, otp.ID)
	s.writeAudit(ctx, admin.ID, "admin.change_password", nil, nil)

	return nil
}

func (s *AdminService) ChangeEmail(ctx context.Context, adminID, code, newEmail string) error {
	email := strings.ToLower(strings.TrimSpace(newEmail))
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidAdminInput
	}

	admin, err := s.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	otp, err := s.activeOTP(ctx, admin.Email, code)
	if err != nil {
		return err
	}

	if err := s.adminRepo.UpdateEmail(ctx, admin.ID, email); err != nil {
		return err
	}

	_ = s.otpRepo.Consume(ctx, otp.ID)
	s.writeAudit(ctx, admin.ID, "admin.change_email",
		map[string]interface{}{"email": admin.Email},
		map[string]interface{}{"email": email},
	)

	return nil
}

func (s *AdminService) activeOTP(ctx context.Context, email, code string) (*model.AdminOTP, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != otpLength {
		return nil, ErrOTPInvalid
	}

	otp, err := s.otpRepo.FindActive(ctx, email, s.clock.Now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOTPInvalid
	}
	if err != nil {
		return nil, err
	}

	if otp.OTPCode != trimmed {
		return nil, ErrOTPInvalid
	}
	return otp, nil
}

func (s *AdminService) writeAudit(ctx context.Context, adminID uuid.UUID, action string, oldValue, newValue map[string]interface{}) {
	if s.auditRepo == nil {
		return
	}

	if err := s.auditRepo.Create(ctx, &model.AuditLog{
		ActorID:      &adminID,
		ActorType:    model.ActorTypeAdmin,
		Action:       action,
		ResourceType: strPtr("admin"),
		ResourceID:   strPtr(adminID.String()),
		OldValue:     oldValue,
		NewValue:     newValue,
	}); err != nil {
		s.logger.Warn("write admin audit failed", zap.String("action", action), zap.Error(err))
	}
}

func randomOTP() (string, error) {
	digits := make([]byte, otpLength)
	ten := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("draw otp digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
