package service

import (
	"context"
	"sync"
	"time"

	"github.com/visheshwork12-cmyk/trust-engine/internal/config"
	"github.com/visheshwork12-cmyk/trust-engine/internal/domain"
	"github.com/visheshwork12-cmyk/trust-engine/internal/repository"
	"github.com/visheshwork12-cmyk/trust-engine/pkg/audit"
	"github.com/visheshwork12-cmyk/trust-engine/pkg/validator"
)

func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			TTL:                  24 * time.Hour,
			InvalidatedRetention: 5 * time.Minute,
			MaxActiveSessions:    5,
			RegistryTTL:          7 * 24 * time.Hour,
			SuspiciousFlagTTL:    time.Hour,
		},
		MFA: config.MFAConfig{
			Issuer:          "SchoolSaaS-Test",
			SetupTTL:        15 * time.Minute,
			SecretSize:      32,
			BackupCodeCount: 10,
			BackupCodeLen:   8,
			TOTPSkew:        1,
			TOTPPeriod:      30 * time.Second,
		},
		Risk: config.RiskConfig{SubnetRangeBits: 24},
	}
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.SecureSession
	ttls     map[string]time.Duration
	saveErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[string]domain.SecureSession),
		ttls:     make(map[string]time.Duration),
	}
}

func (f *fakeSessionRepo) Get(ctx context.Context, tenantID, principalID, sessionID string) (*domain.SecureSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[repository.SessionKey(tenantID, principalID, sessionID).String()]
	if !ok {
		return nil, nil
	}
	copied := s
	return &copied, nil
}

func (f *fakeSessionRepo) Save(ctx context.Context, session *domain.SecureSession, ttl time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := repository.SessionKey(session.TenantID, session.PrincipalID, session.SessionID).String()
	f.sessions[key] = *session
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSessionRepo) Invalidate(ctx context.Context, tenantID, principalID, sessionID, reason string, retention time.Duration) (*domain.SecureSession, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := repository.SessionKey(tenantID, principalID, sessionID).String()
	s, ok := f.sessions[key]
	if !ok {
		return nil, false, nil
	}
	if !s.IsValid {
		copied := s
		return &copied, false, nil
	}
	now := time.Now()
	s.IsValid = false
	s.InvalidatedAt = &now
	s.InvalidationReason = reason
	f.sessions[key] = s
	f.ttls[key] = retention
	copied := s
	return &copied, true, nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, tenantID, principalID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := repository.SessionKey(tenantID, principalID, sessionID).String()
	delete(f.sessions, key)
	delete(f.ttls, key)
	return nil
}

func (f *fakeSessionRepo) ttlOf(tenantID, principalID, sessionID string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[repository.SessionKey(tenantID, principalID, sessionID).String()]
}

type fakeRegistryRepo struct {
	mu      sync.Mutex
	lists   map[string][]domain.ActiveSessionEntry
	saveErr error
}

func newFakeRegistryRepo() *fakeRegistryRepo {
	return &fakeRegistryRepo{lists: make(map[string][]domain.ActiveSessionEntry)}
}

func (f *fakeRegistryRepo) GetEntries(ctx context.Context, tenantID, principalID string) ([]domain.ActiveSessionEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.lists[repository.ActiveSessionsKey(tenantID, principalID).String()]
	out := make([]domain.ActiveSessionEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (f *fakeRegistryRepo) SaveEntries(ctx context.Context, tenantID, principalID string, entries []domain.ActiveSessionEntry, ttl time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make([]domain.ActiveSessionEntry, len(entries))
	copy(stored, entries)
	f.lists[repository.ActiveSessionsKey(tenantID, principalID).String()] = stored
	return nil
}

func (f *fakeRegistryRepo) Delete(ctx context.Context, tenantID, principalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lists, repository.ActiveSessionsKey(tenantID, principalID).String())
	return nil
}

type fakeSetupRepo struct {
	mu     sync.Mutex
	setups map[string]domain.MFASetupSession
}

func newFakeSetupRepo() *fakeSetupRepo {
	return &fakeSetupRepo{setups: make(map[string]domain.MFASetupSession)}
}

func (f *fakeSetupRepo) Save(ctx context.Context, tenantID, principalID string, setup *domain.MFASetupSession, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setups[repository.MFASetupKey(tenantID, principalID).String()] = *setup
	return nil
}

func (f *fakeSetupRepo) Get(ctx context.Context, tenantID, principalID string) (*domain.MFASetupSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.setups[repository.MFASetupKey(tenantID, principalID).String()]
	if !ok {
		return nil, nil
	}
	copied := s
	return &copied, nil
}

func (f *fakeSetupRepo) Delete(ctx context.Context, tenantID, principalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.setups, repository.MFASetupKey(tenantID, principalID).String())
	return nil
}

type fakeSuspiciousRepo struct {
	mu    sync.Mutex
	flags []domain.SuspiciousActivityFlag
}

func (f *fakeSuspiciousRepo) Record(ctx context.Context, tenantID, principalID string, flag *domain.SuspiciousActivityFlag, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags = append(f.flags, *flag)
	return nil
}

type fakePrincipalRepo struct {
	mu         sync.Mutex
	principals map[string]*domain.Principal
}

func newFakePrincipalRepo() *fakePrincipalRepo {
	return &fakePrincipalRepo{principals: make(map[string]*domain.Principal)}
}

func (f *fakePrincipalRepo) put(p *domain.Principal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.principals[p.TenantID+":"+p.ID] = p
}

func (f *fakePrincipalRepo) FindByIDWithMFA(ctx context.Context, tenantID, principalID string) (*domain.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.principals[tenantID+":"+principalID], nil
}

func (f *fakePrincipalRepo) SaveMFACredential(ctx context.Context, tenantID, principalID string, cred *domain.MFACredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.principals[tenantID+":"+principalID]
	if !ok {
		p = &domain.Principal{ID: principalID, TenantID: tenantID}
		f.principals[tenantID+":"+principalID] = p
	}
	copied := *cred
	copied.BackupCodes = append([]string(nil), cred.BackupCodes...)
	p.MFA = &copied
	return nil
}

func (f *fakePrincipalRepo) ConsumeBackupCode(ctx context.Context, tenantID, principalID, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.principals[tenantID+":"+principalID]
	if !ok || p.MFA == nil {
		return false, nil
	}
	for i, c := range p.MFA.BackupCodes {
		if c == code {
			p.MFA.BackupCodes = append(p.MFA.BackupCodes[:i], p.MFA.BackupCodes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type recordedEvent struct {
	Event string
	Attrs map[string]any
	Ctx   audit.Context
}

type fakeSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeSink) Record(ctx context.Context, event string, attrs map[string]any, actx audit.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Event: event, Attrs: attrs, Ctx: actx})
}

func (f *fakeSink) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Event
	}
	return out
}

func (f *fakeSink) count(event string) int {
	n := 0
	for _, name := range f.names() {
		if name == event {
			n++
		}
	}
	return n
}

type sessionTestEnv struct {
	svc        *SessionSecurityService
	sessions   *fakeSessionRepo
	registry   *fakeRegistryRepo
	suspicious *fakeSuspiciousRepo
	sink       *fakeSink
}

func newSessionTestEnv() *sessionTestEnv {
	cfg := testConfig()
	sessions := newFakeSessionRepo()
	registryRepo := newFakeRegistryRepo()
	suspicious := &fakeSuspiciousRepo{}
	sink := &fakeSink{}
	registry := NewActiveSessionRegistry(registryRepo, cfg, nil)
	svc := NewSessionSecurityService(sessions, registry, suspicious, sink, validator.NewValidator(), cfg, nil)
	return &sessionTestEnv{
		svc:        svc,
		sessions:   sessions,
		registry:   registryRepo,
		suspicious: suspicious,
		sink:       sink,
	}
}

type mfaTestEnv struct {
	svc        *MFAService
	principals *fakePrincipalRepo
	setups     *fakeSetupRepo
	sink       *fakeSink
}

func newMFATestEnv() *mfaTestEnv {
	cfg := testConfig()
	principals := newFakePrincipalRepo()
	setups := newFakeSetupRepo()
	sink := &fakeSink{}
	svc := NewMFAService(principals, setups, sink, validator.NewValidator(), cfg, nil)
	return &mfaTestEnv{
		svc:        svc,
		principals: principals,
		setups:     setups,
		sink:       sink,
	}
}
