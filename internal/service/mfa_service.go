package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/visheshwork12-cmyk/trust-engine/internal/config"
	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
	"github.com/visheshwork12-cmyk/trust-engine/internal/repository"
	"github.com/visheshwork12-cmyk/trust-engine/pkg/audit"
	"github.com/visheshwork12-cmyk/trust-engine/pkg/validator"
)

const (
	backupCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	qrImageSize       = 200
)

// privilegedRoles must complete MFA before sensitive operations.
var privilegedRoles = map[string]bool{
	domain.RoleSuperAdmin:    true,
	domain.RolePlatformAdmin: true,
	domain.RoleSchoolAdmin:   true,
	domain.RolePrincipal:     true,
}

// MFAService provisions TOTP credentials and verifies one-time and backup
// codes. A pending setup never touches the permanent credential until
// EnableMFA verifies it, so an abandoned setup cannot affect login.
type MFAService struct {
	principalRepo repository.PrincipalRepository
	setupRepo     repository.MFASetupRepository
	auditSink     audit.Sink
	validate      *validator.Validator
	cfg           *config.Config
	logger        *slog.Logger
}

func NewMFAService(
	principalRepo repository.PrincipalRepository,
	setupRepo repository.MFASetupRepository,
	auditSink audit.Sink,
	validate *validator.Validator,
	cfg *config.Config,
	logger *slog.Logger,
) *MFAService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MFAService{
		principalRepo: principalRepo,
		setupRepo:     setupRepo,
		auditSink:     auditSink,
		validate:      validate,
		cfg:           cfg,
		logger:        logger,
	}
}

// IsMFARequired reports whether the role must complete MFA for privileged
// operations.
func IsMFARequired(role string) bool {
	return privilegedRoles[role]
}

type GenerateSecretRequest struct {
	PrincipalID string `json:"principal_id" validate:"required"`
	TenantID    string `json:"tenant_id" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
}

// MFAEnrollment is everything a client needs to finish MFA setup.
type MFAEnrollment struct {
	Secret         string   `json:"secret"`
	QRCodeDataURI  string   `json:"qr_code_data_uri"`
	ManualEntryKey string   `json:"manual_entry_key"`
	BackupCodes    []string `json:"backup_codes"`
}

// GenerateSecret provisions a fresh TOTP secret and backup codes, parked in
// a transient setup session until EnableMFA confirms them.
func (s *MFAService) GenerateSecret(ctx context.Context, req GenerateSecretRequest) (*MFAEnrollment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.cfg.MFA.Issuer,
		AccountName: req.Email,
		SecretSize:  uint(s.cfg.MFA.SecretSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	backupCodes, err := generateBackupCodes(s.cfg.MFA.BackupCodeCount, s.cfg.MFA.BackupCodeLen)
	if err != nil {
		return nil, err
	}

	setup := &domain.MFASetupSession{
		SecretBase32: key.Secret(),
		BackupCodes:  backupCodes,
		CreatedAt:    time.Now(),
	}
	if err := s.setupRepo.Save(ctx, req.TenantID, req.PrincipalID, setup, s.cfg.MFA.SetupTTL); err != nil {
		return nil, fmt.Errorf("failed to store mfa setup: %w", err)
	}

	qrDataURI, err := qrCodeDataURI(key)
	if err != nil {
		return nil, err
	}

	s.auditSink.Record(ctx, domain.EventMFASetupStarted, map[string]any{
		"email": req.Email,
	}, audit.Context{TenantID: req.TenantID, PrincipalID: req.PrincipalID})

	return &MFAEnrollment{
		Secret:         key.Secret(),
		QRCodeDataURI:  qrDataURI,
		ManualEntryKey: formatManualEntryKey(key.Secret()),
		BackupCodes:    backupCodes,
	}, nil
}

type VerifyTOTPRequest struct {
	PrincipalID string `json:"principal_id" validate:"required"`
	TenantID    string `json:"tenant_id" validate:"required"`
	Token       string `json:"token" validate:"required"`
	IsSetup     bool   `json:"is_setup"`
}

// VerifyTOTP checks a one-time code against the pending setup secret
// (IsSetup) or the enabled credential. Verification is stateless: the same
// valid code verifies again within the same time step. Tracking the last
// used step would close that replay window but is deliberately not done.
func (s *MFAService) VerifyTOTP(ctx context.Context, req VerifyTOTPRequest) error {
	if err := s.validate.Validate(req); err != nil {
		return err
	}

	token := strings.Join(strings.Fields(req.Token), "")

	var secret string
	if req.IsSetup {
		setup, err := s.setupRepo.Get(ctx, req.TenantID, req.PrincipalID)
		if err != nil {
			return fmt.Errorf("failed to load mfa setup: %w", err)
		}
		if setup == nil {
			return domain.ErrMFASetupExpired
		}
		secret = setup.SecretBase32
	} else {
		principal, err := s.principalRepo.FindByIDWithMFA(ctx, req.TenantID, req.PrincipalID)
		if err != nil {
			return fmt.Errorf("failed to load principal: %w", err)
		}
		if principal == nil || principal.MFA == nil || !principal.MFA.Enabled {
			return domain.ErrMFANotConfigured
		}
		secret = principal.MFA.SecretBase32
	}

	valid, err := totp.ValidateCustom(token, secret, time.Now(), totp.ValidateOpts{
		Period:    uint(s.cfg.MFA.TOTPPeriod.Seconds()),
		Skew:      uint(s.cfg.MFA.TOTPSkew),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !valid {
		s.auditSink.Record(ctx, domain.EventMFAVerificationFailed, map[string]any{
			"is_setup": req.IsSetup,
		}, audit.Context{TenantID: req.TenantID, PrincipalID: req.PrincipalID})
		return domain.ErrInvalidMFAToken
	}

	s.auditSink.Record(ctx, domain.EventMFAVerificationOK, map[string]any{
		"is_setup": req.IsSetup,
	}, audit.Context{TenantID: req.TenantID, PrincipalID: req.PrincipalID})

	return nil
}

type EnableMFARequest struct {
	PrincipalID       string `json:"principal_id" validate:"required"`
	TenantID          string `json:"tenant_id" validate:"required"`
	VerificationToken string `json:"verification_token" validate:"required"`
}

type EnableMFAResult struct {
	Enabled     bool     `json:"enabled"`
	BackupCodes []string `json:"backup_codes"`
}

// EnableMFA confirms the pending setup and commits the permanent
// credential. Secret, enabled flag, and backup codes are persisted in a
// single write so a crash cannot leave a half-enabled credential.
func (s *MFAService) EnableMFA(ctx context.Context, req EnableMFARequest) (*EnableMFAResult, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	if err := s.VerifyTOTP(ctx, VerifyTOTPRequest{
		PrincipalID: req.PrincipalID,
		TenantID:    req.TenantID,
		Token:       req.VerificationToken,
		IsSetup:     true,
	}); err != nil {
		return nil, err
	}

	setup, err := s.setupRepo.Get(ctx, req.TenantID, req.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mfa setup: %w", err)
	}
	if setup == nil {
		return nil, domain.ErrMFASetupExpired
	}

	now := time.Now()
	cred := &domain.MFACredential{
		SecretBase32: setup.SecretBase32,
		Enabled:      true,
		EnabledAt:    &now,
		BackupCodes:  setup.BackupCodes,
	}
	if err := s.principalRepo.SaveMFACredential(ctx, req.TenantID, req.PrincipalID, cred); err != nil {
		return nil, fmt.Errorf("failed to persist mfa credential: %w", err)
	}

	// A stale setup session expires via its own TTL, so a cleanup failure
	// here is not worth failing the enable for.
	if err := s.setupRepo.Delete(ctx, req.TenantID, req.PrincipalID); err != nil {
		s.logger.DebugContext(ctx, "failed to delete consumed mfa setup",
			"principal_id", req.PrincipalID, "error", err)
	}

	s.auditSink.Record(ctx, domain.EventMFAEnabled, nil,
		audit.Context{TenantID: req.TenantID, PrincipalID: req.PrincipalID})

	s.logger.InfoContext(ctx, "mfa enabled",
		"tenant_id", req.TenantID,
		"principal_id", req.PrincipalID,
	)

	return &EnableMFAResult{Enabled: true, BackupCodes: setup.BackupCodes}, nil
}

type VerifyBackupCodeRequest struct {
	PrincipalID string `json:"principal_id" validate:"required"`
	TenantID    string `json:"tenant_id" validate:"required"`
	Code        string `json:"code" validate:"required"`
}

// VerifyBackupCode atomically verifies and consumes a single-use backup
// code. Re-submitting a consumed code fails.
func (s *MFAService) VerifyBackupCode(ctx context.Context, req VerifyBackupCodeRequest) error {
	if err := s.validate.Validate(req); err != nil {
		return err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))

	consumed, err := s.principalRepo.ConsumeBackupCode(ctx, req.TenantID, req.PrincipalID, code)
	if err != nil {
		return fmt.Errorf("failed to consume backup code: %w", err)
	}
	if !consumed {
		s.auditSink.Record(ctx, domain.EventMFAVerificationFailed, map[string]any{
			"method": "backup_code",
		}, audit.Context{TenantID: req.TenantID, PrincipalID: req.PrincipalID})
		return domain.ErrInvalidBackupCode
	}

	s.auditSink.Record(ctx, domain.EventMFABackupCodeUsed, nil,
		audit.Context{TenantID: req.TenantID, PrincipalID: req.PrincipalID})

	return nil
}

// generateBackupCodes returns count uppercase alphanumeric codes. Codes are
// independent draws; at this length a cross-code collision is negligible.
func generateBackupCodes(count, length int) ([]string, error) {
	codes := make([]string, count)
	for i := range codes {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		for j, b := range buf {
			buf[j] = backupCodeCharset[int(b)%len(backupCodeCharset)]
		}
		codes[i] = string(buf)
	}
	return codes, nil
}

// formatManualEntryKey groups the secret for hand-typing into an
// authenticator app.
func formatManualEntryKey(secret string) string {
	var groups []string
	for i := 0; i < len(secret); i += 4 {
		end := i + 4
		if end > len(secret) {
			end = len(secret)
		}
		groups = append(groups, secret[i:end])
	}
	return strings.Join(groups, " ")
}

// qrCodeDataURI renders the provisioning QR code as an inline PNG.
func qrCodeDataURI(key *otp.Key) (string, error) {
	img, err := key.Image(qrImageSize, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
