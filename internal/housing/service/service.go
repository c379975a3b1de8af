// Package service owns the housing-application lifecycle: it loads or
// initializes the aggregate for a member session, routes mutations through
// the roster, preference, and editor managers, and reconciles local state
// with the housing directory on save, submit, and delete.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"resportal/internal/housing/audit"
	housingmetrics "resportal/internal/housing/metrics"
	"resportal/internal/housing/models"
	"resportal/internal/housing/roster"
)

// statusWindow is how long a success or error busy-flag stays visible
// before auto-reverting to idle.
const statusWindow = 6 * time.Second

// IdentityDirectory resolves member usernames to profiles.
type IdentityDirectory interface {
	Profile(ctx context.Context, username string) (models.Profile, error)
}

// HousingDirectory is the authoritative store of application records. The
// remote HTTP client, the in-memory store, and the postgres store all
// implement it.
type HousingDirectory interface {
	CurrentApplicationID(ctx context.Context, username string) (int64, error)
	Application(ctx context.Context, id int64) (models.ApplicationDetails, error)
	SaveApplication(ctx context.Context, details models.ApplicationDetails) (int64, error)
	SubmitApplication(ctx context.Context, id int64) (bool, error)
	DeleteApplication(ctx context.Context, id int64) (bool, error)
	ChangeEditor(ctx context.Context, id int64, username string) (bool, error)
	AvailableHalls(ctx context.Context, editorUsername string) ([]string, error)
}

// Service orchestrates member workflow sessions.
type Service struct {
	identity IdentityDirectory
	housing  HousingDirectory
	roster   *roster.Manager
	metrics  *housingmetrics.Metrics
	audit    *audit.Emitter
	log      *zap.Logger
	window   time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type serviceConfig struct {
	metrics *housingmetrics.Metrics
	audit   *audit.Emitter
	log     *zap.Logger
	window  time.Duration
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

func WithMetrics(m *housingmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithAudit(e *audit.Emitter) Option {
	return func(c *serviceConfig) { c.audit = e }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *serviceConfig) { c.log = log }
}

// WithStatusWindow overrides the busy-flag display window; tests shorten it.
func WithStatusWindow(d time.Duration) Option {
	return func(c *serviceConfig) { c.window = d }
}

func NewService(identity IdentityDirectory, housing HousingDirectory, opts ...Option) *Service {
	cfg := &serviceConfig{window: statusWindow}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = zap.NewNop()
	}
	return &Service{
		identity: identity,
		housing:  housing,
		roster:   roster.NewManager(identity, housing),
		metrics:  cfg.metrics,
		audit:    cfg.audit,
		log:      cfg.log,
		window:   cfg.window,
		sessions: make(map[string]*session),
	}
}

// session returns the workflow session for member, creating it on first use.
func (s *Service) session(member string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[member]
	if !ok {
		sess = newSession(member, s.window)
		s.sessions[member] = sess
	}
	return sess
}

// AvailableHalls proxies the directory's hall list for the session's editor.
func (s *Service) AvailableHalls(ctx context.Context, member string) ([]string, error) {
	return s.housing.AvailableHalls(ctx, member)
}

func (s *Service) notify(sess *session, severity models.Severity, message string) {
	sess.pushNotice(models.Notice{Message: message, Severity: severity})
	s.metrics.IncNotice(string(severity))
}
