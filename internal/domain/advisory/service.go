package advisory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	apperrors "github.com/yanqian/travel-advisor/pkg/errors"
	"github.com/yanqian/travel-advisor/pkg/metrics"
)

const (
	DefaultSource   = "US Department of State"
	DefaultCacheTTL = 24 * time.Hour

	indexURL = "https://travel.state.gov/content/travel/en/traveladvisories/traveladvisories.html"
	homeURL  = "https://travel.state.gov"
)

// Service resolves the travel advisory for a country. Resolve never fails:
// every failure path is encoded in a level 0 record.
type Service interface {
	Resolve(ctx context.Context, countryCode, countryName string) Record
}

type service struct {
	cfg     Config
	source  BulletinSource
	cache   Cache
	metrics *metrics.AdvisoryMetrics
	logger  *slog.Logger
	clock   clockwork.Clock
}

// NewService wires up the advisory domain.
func NewService(cfg Config, source BulletinSource, cache Cache, m *metrics.AdvisoryMetrics, logger *slog.Logger) Service {
	return newService(cfg, source, cache, m, logger, clockwork.NewRealClock())
}

func newService(cfg Config, source BulletinSource, cache Cache, m *metrics.AdvisoryMetrics, logger *slog.Logger, clock clockwork.Clock) *service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if strings.TrimSpace(cfg.Source) == "" {
		cfg.Source = DefaultSource
	}
	return &service{
		cfg:     cfg,
		source:  source,
		cache:   cache,
		metrics: m,
		logger:  logger.With("component", "advisory.service"),
		clock:   clock,
	}
}

func (s *service) Resolve(ctx context.Context, countryCode, countryName string) (rec Record) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("advisory resolution panicked", "country_code", countryCode, "country", countryName, "panic", r)
			s.metrics.ObserveResolution(metrics.OutcomeUnavailable)
			rec = s.unavailableRecord()
		}
	}()

	bulletins, ok := s.loadBulletins(ctx)
	if !ok {
		s.metrics.ObserveResolution(metrics.OutcomeUnavailable)
		return s.unavailableRecord()
	}

	bulletin, found := matchBulletin(bulletins, countryName)
	if !found {
		s.logger.Info("no advisory matched", "country_code", countryCode, "country", countryName, "bulletins", len(bulletins))
		s.metrics.ObserveResolution(metrics.OutcomeNotFound)
		return s.notFoundRecord(countryName)
	}

	s.logger.Debug("advisory matched", "country_code", countryCode, "country", countryName, "title", bulletin.Title)
	s.metrics.ObserveResolution(metrics.OutcomeMatched)
	return s.buildRecord(bulletin)
}

// loadBulletins returns the cached list when it is still fresh, otherwise it
// performs one live fetch and stores the result. ok is false when no list is
// available for this call.
func (s *service) loadBulletins(ctx context.Context) ([]Bulletin, bool) {
	now := s.clock.Now()

	if s.cache != nil {
		entry, found, err := s.cache.Get(ctx)
		switch {
		case err != nil && apperrors.IsCode(err, CodeCacheCorrupt):
			s.logger.Warn("cached bulletins unreadable, refetching", "error", err)
			s.metrics.ObserveCacheLookup(metrics.CacheCorrupt)
		case err != nil:
			s.logger.Warn("bulletin cache read failed, refetching", "error", err)
			s.metrics.ObserveCacheLookup(metrics.CacheError)
		case !found:
			s.metrics.ObserveCacheLookup(metrics.CacheMiss)
		case s.isFresh(entry, now):
			s.logger.Debug("using cached bulletins", "fetched_at", entry.FetchedTime(), "bulletins", len(entry.Bulletins))
			s.metrics.ObserveCacheLookup(metrics.CacheHit)
			return entry.Bulletins, true
		default:
			s.logger.Debug("bulletin cache expired", "fetched_at", entry.FetchedTime())
			s.metrics.ObserveCacheLookup(metrics.CacheExpired)
		}
	}

	started := s.clock.Now()
	bulletins, err := s.source.FetchBulletins(ctx)
	s.metrics.ObserveFetch(s.clock.Since(started).Seconds())
	if err != nil {
		s.logger.Error("bulletin fetch failed", "code", apperrors.CodeOf(err), "error", err)
		return nil, false
	}
	if bulletins == nil {
		bulletins = []Bulletin{}
	}
	s.logger.Info("bulletins fetched", "bulletins", len(bulletins))

	if s.cache != nil {
		err := s.cache.Set(ctx, CacheEntry{FetchedAt: now.UnixMilli(), Bulletins: bulletins})
		s.metrics.ObserveCacheWrite(err)
		if err != nil {
			s.logger.Warn("failed to cache bulletins", "error", err)
		}
	}
	return bulletins, true
}

func (s *service) isFresh(entry CacheEntry, now time.Time) bool {
	return now.UnixMilli()-entry.FetchedAt < s.cfg.CacheTTL.Milliseconds()
}

func (s *service) buildRecord(b Bulletin) Record {
	level := extractLevel(b.Title)
	info := levels[level]
	link := b.Link
	if strings.TrimSpace(link) == "" {
		link = indexURL
	}
	return Record{
		Level:     level,
		LevelText: info.short,
		Message:   info.full,
		Summary:   normalizeSummary(b.Summary, info.full),
		Source:    s.cfg.Source,
		Link:      link,
	}
}

func (s *service) notFoundRecord(countryName string) Record {
	return Record{
		Level:     0,
		LevelText: "Not Available",
		Message:   "Advisory data not available for this country.",
		Summary:   fmt.Sprintf("No specific travel advisory found for %s.", countryName),
		Source:    s.cfg.Source,
		Link:      indexURL,
	}
}

func (s *service) unavailableRecord() Record {
	return Record{
		Level:     0,
		LevelText: "Unavailable",
		Message:   "Unable to fetch travel advisory",
		Summary:   "Travel advisory service is temporarily unavailable.",
		Source:    s.cfg.Source,
		Link:      homeURL,
	}
}
