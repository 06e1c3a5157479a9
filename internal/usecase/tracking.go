package usecase

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/logger"
)

// ErrTrackingDisabled is returned while visit tracking is switched off.
var ErrTrackingDisabled = errors.New("tracking disabled")

const DefaultUniqueWindow = 24 * time.Hour

// VisitInput describes one portal visit.
type VisitInput struct {
	ApplicationID string
	IP            string
	UserAgent     string
	Source        string
	URL           string
	Authenticated bool
	Country       string
	Region        string
	City          string
}

// TrackingService records portal visits of published applications.
type TrackingService struct {
	visits       port.VisitStore
	events       port.EventPublisher
	metrics      port.ConsoleMetrics
	logger       *zap.Logger
	now          func() time.Time
	uniqueWindow time.Duration
	enabled      atomic.Bool
}

// TrackingOptions configures a TrackingService.
type TrackingOptions struct {
	Enabled      bool
	UniqueWindow time.Duration
	Events       port.EventPublisher
	Metrics      port.ConsoleMetrics
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewTrackingService(visits port.VisitStore, opts TrackingOptions) *TrackingService {
	s := &TrackingService{
		visits:       visits,
		events:       opts.Events,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		now:          opts.Now,
		uniqueWindow: opts.UniqueWindow,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.uniqueWindow <= 0 {
		s.uniqueWindow = DefaultUniqueWindow
	}
	s.enabled.Store(opts.Enabled)
	return s
}

// SetEnabled switches tracking on or off.
func (s *TrackingService) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
	s.logger.Info("visit tracking toggled", zap.Bool("enabled", enabled))
}

func (s *TrackingService) Enabled() bool { return s.enabled.Load() }

// TrackVisit stores a visit. A visit is unique when the same address has not visited the same
// application within the unique window.
func (s *TrackingService) TrackVisit(ctx context.Context, in VisitInput) (*domain.Consultation, error) {
	if !s.Enabled() {
		return nil, ErrTrackingDisabled
	}
	appID := strings.TrimSpace(in.ApplicationID)
	if appID == "" {
		return nil, invalid("Missing application ID")
	}
	if !IsValidUUID(appID) {
		return nil, invalid("Invalid application ID")
	}

	exists, err := s.visits.ApplicationExists(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, invalid("Unknown application")
	}

	ip := ""
	if parsed := net.ParseIP(strings.TrimSpace(in.IP)); parsed != nil {
		ip = parsed.String()
	}

	now := s.now()
	unique := true
	if ip != "" {
		seen, err := s.visits.HasVisitSince(ctx, appID, ip, now.Add(-s.uniqueWindow))
		if err != nil {
			return nil, err
		}
		unique = !seen
	}

	agent := ParseUserAgent(in.UserAgent)
	visit := domain.Consultation{
		ID:              uuid.NewString(),
		ApplicationID:   appID,
		VisitedAt:       now,
		Country:         strings.TrimSpace(in.Country),
		Region:          strings.TrimSpace(in.Region),
		City:            strings.TrimSpace(in.City),
		DeviceType:      agent.Device,
		Browser:         agent.Browser,
		OS:              agent.OS,
		IsUnique:        unique,
		IsAuthenticated: in.Authenticated,
		IPAddress:       ip,
		Source:          strings.TrimSpace(in.Source),
		URL:             strings.TrimSpace(in.URL),
	}

	if err := s.visits.Insert(ctx, visit); err != nil {
		s.logger.Error("failed to record visit", zap.String("application_id", appID), zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveVisit(unique)
	}
	if s.events != nil {
		event := domain.VisitTrackedEvent{
			EventID:        uuid.NewString(),
			ConsultationID: visit.ID,
			ApplicationID:  appID,
			IsUnique:       unique,
			Source:         visit.Source,
			VisitedAt:      now,
		}
		if err := s.events.PublishVisitTracked(ctx, event); err != nil {
			s.logger.Warn("failed to publish visit", zap.Error(err))
		}
	}

	s.logger.Debug("visit tracked",
		zap.String("application_id", appID),
		zap.String("ip", logger.MaskIP(ip)),
		zap.Bool("unique", unique),
	)
	return &visit, nil
}

// UserAgent is the coarse classification stored with a visit.
type UserAgent struct {
	Device  string
	Browser string
	OS      string
}

// ParseUserAgent classifies a User-Agent header into device class, browser family and OS.
func ParseUserAgent(ua string) UserAgent {
	lower := strings.ToLower(ua)
	out := UserAgent{Device: "Desktop", Browser: "Other", OS: "Other"}
	if strings.TrimSpace(ua) == "" {
		out.Device = ""
		out.Browser = ""
		out.OS = ""
		return out
	}

	switch {
	case strings.Contains(lower, "ipad"), strings.Contains(lower, "tablet"),
		strings.Contains(lower, "android") && !strings.Contains(lower, "mobile"):
		out.Device = "Tablet"
	case strings.Contains(lower, "mobi"), strings.Contains(lower, "iphone"), strings.Contains(lower, "ipod"):
		out.Device = "Mobile"
	}

	switch {
	case strings.Contains(lower, "edg/"), strings.Contains(lower, "edge/"):
		out.Browser = "Edge"
	case strings.Contains(lower, "opr/"), strings.Contains(lower, "opera"):
		out.Browser = "Opera"
	case strings.Contains(lower, "samsungbrowser"):
		out.Browser = "Samsung Internet"
	case strings.Contains(lower, "firefox/"), strings.Contains(lower, "fxios"):
		out.Browser = "Firefox"
	case strings.Contains(lower, "chrome/"), strings.Contains(lower, "crios"):
		out.Browser = "Chrome"
	case strings.Contains(lower, "safari/"):
		out.Browser = "Safari"
	}

	switch {
	case strings.Contains(lower, "windows"):
		out.OS = "Windows"
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"), strings.Contains(lower, "ipod"):
		out.OS = "iOS"
	case strings.Contains(lower, "mac os"), strings.Contains(lower, "macintosh"):
		out.OS = "macOS"
	case strings.Contains(lower, "android"):
		out.OS = "Android"
	case strings.Contains(lower, "cros"):
		out.OS = "ChromeOS"
	case strings.Contains(lower, "linux"):
		out.OS = "Linux"
	}
	return out
}
