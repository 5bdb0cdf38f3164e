package cases

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pvtools/casedup/internal/config"
	"github.com/pvtools/casedup/internal/core/model"
	"github.com/pvtools/casedup/internal/logging"
)

const summaryTTL = 5 * time.Minute

// Source is the persistence surface the lookup service reads from.
type Source interface {
	CaseByID(ctx context.Context, id string) (*model.Case, error)
}

// Service answers case lookups, optionally fronted by a Redis
// read-through cache for the summary projection. Cache failures fall
// through to the source.
type Service struct {
	source Source
	cache  *redis.Client
	log    *logrus.Entry
}

func NewService(source Source, cache *redis.Client) *Service {
	return &Service{
		source: source,
		cache:  cache,
		log:    logging.Module("cases"),
	}
}

// NewCache builds the Redis client, or returns nil when no address is
// configured and the service should run uncached.
func NewCache(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (s *Service) Case(ctx context.Context, id string) (*model.Case, error) {
	return s.source.CaseByID(ctx, id)
}

func (s *Service) CaseSummary(ctx context.Context, id string) (*model.CaseSummary, error) {
	if cached := s.cachedSummary(ctx, id); cached != nil {
		return cached, nil
	}

	c, err := s.source.CaseByID(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := c.Summary()
	s.storeSummary(ctx, id, summary)
	return summary, nil
}

func (s *Service) cachedSummary(ctx context.Context, id string) *model.CaseSummary {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, summaryKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var summary model.CaseSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		s.log.WithField("caseId", id).WithError(err).Warn("dropping corrupt cached summary")
		return nil
	}
	return &summary
}

func (s *Service) storeSummary(ctx context.Context, id string, summary *model.CaseSummary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, summaryKey(id), raw, summaryTTL).Err(); err != nil {
		s.log.WithField("caseId", id).WithError(err).Debug("summary cache write failed")
	}
}

func summaryKey(id string) string {
	return "case-summary:" + id
}
