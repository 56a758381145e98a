package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/visheshwork12-cmyk/trust-engine/internal/config"
	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
	"github.com/visheshwork12-cmyk/trust-engine/internal/repository"
	"github.com/visheshwork12-cmyk/trust-engine/pkg/audit"
	"github.com/visheshwork12-cmyk/trust-engine/pkg/risk"
	"github.com/visheshwork12-cmyk/trust-engine/pkg/validator"
)

// sessionIDBytes is the entropy of a session token (256 bits, hex-encoded).
const sessionIDBytes = 32

// SessionSecurityService owns the session lifecycle: creation with context
// binding, per-request validation against the bound context, and the
// one-way invalidation transition.
type SessionSecurityService struct {
	sessionRepo    repository.SessionRepository
	registry       *ActiveSessionRegistry
	suspiciousRepo repository.SuspiciousFlagRepository
	auditSink      audit.Sink
	validate       *validator.Validator
	cfg            *config.Config
	logger         *slog.Logger
}

func NewSessionSecurityService(
	sessionRepo repository.SessionRepository,
	registry *ActiveSessionRegistry,
	suspiciousRepo repository.SuspiciousFlagRepository,
	auditSink audit.Sink,
	validate *validator.Validator,
	cfg *config.Config,
	logger *slog.Logger,
) *SessionSecurityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSecurityService{
		sessionRepo:    sessionRepo,
		registry:       registry,
		suspiciousRepo: suspiciousRepo,
		auditSink:      auditSink,
		validate:       validate,
		cfg:            cfg,
		logger:         logger,
	}
}

type CreateSessionRequest struct {
	PrincipalID string                `json:"principal_id" validate:"required"`
	TenantID    string                `json:"tenant_id" validate:"required"`
	Context     domain.SessionContext `json:"context"`
	Policy      domain.SessionPolicy  `json:"policy"`
}

type CreateSessionResult struct {
	SessionID     string               `json:"session_id"`
	SecurityLevel domain.SecurityLevel `json:"security_level"`
}

// CreateSession issues a new session bound to the observed context. The
// session record and its registry entry commit together: if the registry
// append fails, the record is rolled back and the caller may retry the
// whole operation (a fresh id is generated each call).
func (s *SessionSecurityService) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResult, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	level := deriveSecurityLevel(req.Context)
	now := time.Now()

	session := &domain.SecureSession{
		SessionID:          sessionID,
		PrincipalID:        req.PrincipalID,
		TenantID:           req.TenantID,
		CreatedAt:          now,
		LastAccessAt:       now,
		BoundIP:            req.Context.IP,
		BoundUserAgent:     req.Context.UserAgent,
		BoundFingerprint:   req.Context.Fingerprint,
		LastObservedIP:     req.Context.IP,
		StrictIPValidation: req.Policy.StrictIPValidation,
		SecurityLevel:      level,
		IsValid:            true,
	}

	if err := s.sessionRepo.Save(ctx, session, s.cfg.Session.TTL); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.registry.Add(ctx, req.TenantID, req.PrincipalID, sessionID); err != nil {
		// Roll back so no orphaned session record is left behind.
		if delErr := s.sessionRepo.Delete(ctx, req.TenantID, req.PrincipalID, sessionID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to roll back session after registry failure",
				"session_id", sessionID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	s.auditSink.Record(ctx, domain.EventSessionCreated, map[string]any{
		"session_id":     sessionID,
		"security_level": string(level),
		"ip":             req.Context.IP,
		"user_agent":     req.Context.UserAgent,
	}, audit.Context{TenantID: req.TenantID, PrincipalID: req.PrincipalID})

	s.logger.InfoContext(ctx, "secure session created",
		"tenant_id", req.TenantID,
		"principal_id", req.PrincipalID,
		"security_level", level,
	)

	return &CreateSessionResult{SessionID: sessionID, SecurityLevel: level}, nil
}

type ValidateSessionRequest struct {
	SessionID   string                `json:"session_id" validate:"required"`
	PrincipalID string                `json:"principal_id" validate:"required"`
	TenantID    string                `json:"tenant_id" validate:"required"`
	Context     domain.RequestContext `json:"context"`
}

type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateSession checks an inbound request against the session's bound
// context. Only a public IP change under a strict policy terminates the
// session mid-request; every weaker signal is flagged for review and the
// request proceeds with warnings.
func (s *SessionSecurityService) ValidateSession(ctx context.Context, req ValidateSessionRequest) (*ValidationResult, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.Get(ctx, req.TenantID, req.PrincipalID, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || !session.IsValid {
		return nil, domain.ErrInvalidSession
	}

	var warnings []string

	ipRes := risk.ValidateIP(session.BoundIP, req.Context.IP, session.StrictIPValidation, s.cfg.Risk.SubnetRangeBits)
	warnings = append(warnings, ipRes.Warnings...)

	if ipRes.Severity == domain.SeverityHigh {
		if session.StrictIPValidation {
			if err := s.InvalidateSession(ctx, req.TenantID, req.PrincipalID, req.SessionID, domain.ReasonIPSecurityViolation); err != nil {
				return nil, err
			}
			s.auditSink.Record(ctx, domain.EventHijackingDetected, map[string]any{
				"session_id":  req.SessionID,
				"bound_ip":    session.BoundIP,
				"observed_ip": req.Context.IP,
			}, audit.Context{TenantID: req.TenantID, PrincipalID: req.PrincipalID})
			s.logger.WarnContext(ctx, "session terminated on ip security violation",
				"tenant_id", req.TenantID,
				"principal_id", req.PrincipalID,
			)
			return nil, domain.ErrSessionHijacking
		}
		// Non-strict sessions soft-fail: flag and proceed.
		s.flagSuspicious(ctx, session, "high-risk ip change", domain.SeverityHigh)
	}

	uaRes := risk.ValidateUserAgent(session.BoundUserAgent, req.Context.UserAgent)
	if !uaRes.Valid {
		// UA drift alone is never conclusive (browser auto-updates are
		// common), so the session survives regardless of severity.
		s.flagSuspicious(ctx, session, "user agent family changed", uaRes.Severity)
		warnings = append(warnings, "user agent changed")
	}

	if session.BoundFingerprint != "" && req.Context.Fingerprint != "" {
		if !risk.ValidateFingerprint(session.BoundFingerprint, req.Context.Fingerprint) {
			s.flagSuspicious(ctx, session, "device fingerprint mismatch", domain.SeverityMedium)
			warnings = append(warnings, "device fingerprint mismatch")
		}
	}

	// Sliding expiration: a successful validation resets the full TTL.
	session.LastAccessAt = time.Now()
	session.LastObservedIP = req.Context.IP
	if err := s.sessionRepo.Save(ctx, session, s.cfg.Session.TTL); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	return &ValidationResult{Valid: true, Warnings: warnings}, nil
}

// InvalidateSession terminates a session. The transition is one-way and
// idempotent: invalidating an already-invalid or missing session is a
// no-op that is still audited.
func (s *SessionSecurityService) InvalidateSession(ctx context.Context, tenantID, principalID, sessionID, reason string) error {
	_, transitioned, err := s.sessionRepo.Invalidate(ctx, tenantID, principalID, sessionID, reason, s.cfg.Session.InvalidatedRetention)
	if err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	if err := s.registry.Remove(ctx, tenantID, principalID, sessionID); err != nil {
		return err
	}

	s.auditSink.Record(ctx, domain.EventSessionInvalidated, map[string]any{
		"session_id":   sessionID,
		"reason":       reason,
		"transitioned": transitioned,
	}, audit.Context{TenantID: tenantID, PrincipalID: principalID})

	if !transitioned {
		s.logger.DebugContext(ctx, "session already invalid",
			"tenant_id", tenantID,
			"principal_id", principalID,
			"session_id", sessionID,
		)
	}

	return nil
}

// flagSuspicious records an anomaly for later review. Flags never feed back
// into the synchronous decision, and a flag-write failure never breaks it.
func (s *SessionSecurityService) flagSuspicious(ctx context.Context, session *domain.SecureSession, reason string, severity domain.Severity) {
	flag := &domain.SuspiciousActivityFlag{
		ID:         uuid.New().String(),
		SessionID:  session.SessionID,
		Reason:     reason,
		Severity:   severity,
		DetectedAt: time.Now(),
	}

	if err := s.suspiciousRepo.Record(ctx, session.TenantID, session.PrincipalID, flag, s.cfg.Session.SuspiciousFlagTTL); err != nil {
		s.logger.DebugContext(ctx, "failed to record suspicious flag",
			"session_id", session.SessionID, "error", err)
	}

	s.auditSink.Record(ctx, domain.EventSuspiciousActivity, map[string]any{
		"session_id": session.SessionID,
		"reason":     reason,
		"severity":   string(severity),
	}, audit.Context{TenantID: session.TenantID, PrincipalID: session.PrincipalID})
}

// deriveSecurityLevel grades the session from its creation-time signals.
func deriveSecurityLevel(sc domain.SessionContext) domain.SecurityLevel {
	switch {
	case sc.MFAVerified || sc.IsAdminUser:
		return domain.SecurityLevelHigh
	case sc.VPNDetected:
		return domain.SecurityLevelMedium
	default:
		return domain.SecurityLevelStandard
	}
}

func generateSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
