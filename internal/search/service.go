package search

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
	"github.com/schoolfinder/schoolfinder/internal/catalog/repository"
	"github.com/schoolfinder/schoolfinder/internal/filter"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
	"github.com/schoolfinder/schoolfinder/pkg/metrics"
)

// Service defines the search operations used by the handler layer.
type Service interface {
	Search(ctx context.Context, c filter.Criteria, p Page) (Result, error)
	Get(ctx context.Context, slug string) (*catalog.School, error)
	List(ctx context.Context) ([]catalog.School, error)
	Options() Options
}

// Options are the lookup tables the filter bar renders.
type Options struct {
	Boards      []string             `json:"boards"`
	FeeBuckets  []catalog.FeeBucket  `json:"feeRanges"`
	ClassLevels []catalog.ClassLevel `json:"classLevels"`
	Amenities   []catalog.Amenity    `json:"amenities"`
	MaxDistance float64              `json:"maxDistance"`
	SortKeys    []string             `json:"sortKeys"`
}

// NewService returns a Service over repo. cache may be nil to disable result caching.
func NewService(repo repository.Repository, cache Cache, ttl time.Duration) Service {
	return &service{repo: repo, cache: cache, ttl: ttl}
}

type service struct {
	repo  repository.Repository
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

func (s *service) Search(ctx context.Context, c filter.Criteria, p Page) (Result, error) {
	p = p.Normalize()
	key := c.Key() + "|page=" + strconv.Itoa(p.Number) + "&size=" + strconv.Itoa(p.Size)

	if res, ok := s.cached(ctx, key); ok {
		metrics.SearchRequests.WithLabelValues("cached").Inc()
		return res, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		schools, err := s.repo.List(ctx)
		if err != nil {
			return Result{}, err
		}
		matched := filter.Apply(schools, c)
		filter.Sort(matched, c.Sort)
		res := paginate(matched, p)
		s.store(ctx, key, res)
		return res, nil
	})
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return Result{}, err
	}
	metrics.SearchRequests.WithLabelValues("ok").Inc()
	return v.(Result), nil
}

// cached reads key from the cache. Failures are logged and treated as misses.
func (s *service) cached(ctx context.Context, key string) (Result, bool) {
	if s.cache == nil {
		return Result{}, false
	}
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.SearchCache.WithLabelValues("error").Inc()
		logger.Warnf("search cache get %q: %v", key, err)
		return Result{}, false
	}
	if !ok {
		metrics.SearchCache.WithLabelValues("miss").Inc()
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		metrics.SearchCache.WithLabelValues("error").Inc()
		logger.Warnf("search cache decode %q: %v", key, err)
		return Result{}, false
	}
	metrics.SearchCache.WithLabelValues("hit").Inc()
	return res, true
}

func (s *service) store(ctx context.Context, key string, res Result) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		logger.Warnf("search cache encode %q: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		logger.Warnf("search cache set %q: %v", key, err)
	}
}

func (s *service) Get(ctx context.Context, slug string) (*catalog.School, error) {
	return s.repo.Get(ctx, slug)
}

func (s *service) List(ctx context.Context) ([]catalog.School, error) {
	return s.repo.List(ctx)
}

func (s *service) Options() Options {
	return Options{
		Boards:      append([]string(nil), catalog.Boards...),
		FeeBuckets:  append([]catalog.FeeBucket(nil), catalog.FeeBuckets...),
		ClassLevels: append([]catalog.ClassLevel(nil), catalog.ClassLevels...),
		Amenities:   append([]catalog.Amenity(nil), catalog.Amenities...),
		MaxDistance: filter.MaxDistanceKm,
		SortKeys:    []string{filter.SortRating, filter.SortDistance, filter.SortFeeAsc, filter.SortFeeDesc, filter.SortName},
	}
}
