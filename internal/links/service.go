package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkhub/internal/cache"
	"github.com/sundayezeilo/linkhub/internal/errx"
	"github.com/sundayezeilo/linkhub/internal/metrics"
	"github.com/sundayezeilo/linkhub/sluggen"
)

const (
	DefaultShortIDLength  = 5
	DefaultCreateAttempts = 2 // initial try plus one regeneration
	DefaultPage           = 1
	DefaultLimit          = 20
	DefaultCacheTTL       = 5 * time.Minute
)

// CreateParams are the validated inputs for creating a link.
type CreateParams struct {
	Redirect    string
	Title       string
	Description *string
}

// ListQuery selects a page of links. Zero Page/Limit fall back to the
// defaults; a non-empty Filter narrows the returned rows.
type ListQuery struct {
	Filter string
	Page   int
	Limit  int
}

// ListMeta is the pagination metadata returned alongside a listing.
type ListMeta struct {
	TotalCount   int64   `json:"totalCount"`
	CurrentPage  int     `json:"currentPage"`
	PerPage      int     `json:"perPage"`
	TotalPages   int     `json:"totalPages"`
	NextPage     *string `json:"nextPage"`
	PreviousPage *string `json:"previousPage"`
}

// ListResult bundles a page of links with its navigation metadata.
type ListResult struct {
	Data []Link
	Meta ListMeta
}

// Service implements the link-management operations.
type Service interface {
	Create(ctx context.Context, params CreateParams) (Link, error)
	List(ctx context.Context, query ListQuery) (ListResult, error)
	Get(ctx context.Context, shortID string) (*Link, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Link, error)
	Delete(ctx context.Context, id uuid.UUID) (Link, error)
}

type service struct {
	store          Store
	gen            sluggen.Generator
	cache          cache.Cache
	logger         *slog.Logger
	host           string
	shortIDLength  int
	createAttempts int
	cacheTTL       time.Duration
}

// ServiceConfig wires the service's collaborators. Host is the public
// base under which short URLs are composed (e.g. "https://lnk.example.com")
// and is resolved eagerly at construction. Cache is optional.
type ServiceConfig struct {
	Store          Store
	Generator      sluggen.Generator
	Cache          cache.Cache
	Logger         *slog.Logger
	Host           string
	ShortIDLength  int
	CreateAttempts int
	CacheTTL       time.Duration
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) Service {
	gen := cfg.Generator
	if gen == nil {
		gen = sluggen.NewBase62()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	length := cfg.ShortIDLength
	if length <= 0 {
		length = DefaultShortIDLength
	}

	attempts := cfg.CreateAttempts
	if attempts <= 0 {
		attempts = DefaultCreateAttempts
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &service{
		store:          cfg.Store,
		gen:            gen,
		cache:          cfg.Cache,
		logger:         logger,
		host:           strings.TrimRight(cfg.Host, "/"),
		shortIDLength:  length,
		createAttempts: attempts,
		cacheTTL:       ttl,
	}
}

// shortURL composes the public URL for a short identifier. Composed once
// at creation; existing rows keep their url even if host changes later.
func (s *service) shortURL(shortID string) string {
	return s.host + "/" + shortID
}

// Create generates a short identifier, composes the public URL and
// persists the record. A unique-constraint collision on url triggers a
// bounded number of regenerations before surfacing Conflict.
func (s *service) Create(ctx context.Context, params CreateParams) (Link, error) {
	const op = "links.service.Create"

	if params.Redirect == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("redirect is required"))
	}
	if params.Title == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("title is required"))
	}

	for attempt := 0; attempt < s.createAttempts; attempt++ {
		shortID, err := s.gen.Generate(s.shortIDLength)
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}

		created, err := s.store.Create(ctx, Link{
			ShortID:     shortID,
			URL:         s.shortURL(shortID),
			Redirect:    params.Redirect,
			Title:       params.Title,
			Description: params.Description,
		})
		if err == nil {
			return created, nil
		}

		// A collision between two freshly generated identifiers; try a
		// new identifier rather than failing the request.
		if errx.KindOf(err) == errx.Conflict {
			metrics.IdentifierRetries.Inc()
			s.logger.WarnContext(ctx, "short identifier collision, regenerating",
				"short_id", shortID,
				"attempt", attempt+1,
			)
			continue
		}

		return Link{}, errx.E(op, errx.KindOf(err), err)
	}

	return Link{}, errx.E(op, errx.Conflict,
		fmt.Errorf("could not allocate a unique short url after %d attempts", s.createAttempts))
}

// List returns one page of links plus navigation metadata.
func (s *service) List(ctx context.Context, query ListQuery) (ListResult, error) {
	const op = "links.service.List"

	page := query.Page
	if page <= 0 {
		page = DefaultPage
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	skip := (page - 1) * limit

	data, err := s.store.FindMany(ctx, FindManyParams{
		Filter: query.Filter,
		Skip:   skip,
		Take:   limit,
	})
	if err != nil {
		return ListResult{}, errx.E(op, errx.KindOf(err), err)
	}

	// TODO: decide whether totalCount should honor the active filter.
	// Today it counts the whole collection, so a filtered listing reports
	// the unfiltered total and pages beyond the filtered rows come back
	// empty.
	totalCount, err := s.store.Count(ctx, "")
	if err != nil {
		return ListResult{}, errx.E(op, errx.KindOf(err), err)
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	baseURL := fmt.Sprintf("%s/url?limit=%d", s.host, limit)
	if query.Filter != "" {
		baseURL += "&filter=" + url.QueryEscape(query.Filter)
	}

	var nextPage, previousPage *string
	if page < totalPages {
		next := fmt.Sprintf("%s&page=%d", baseURL, page+1)
		nextPage = &next
	}
	if page > 1 {
		prev := fmt.Sprintf("%s&page=%d", baseURL, page-1)
		previousPage = &prev
	}

	return ListResult{
		Data: data,
		Meta: ListMeta{
			TotalCount:   totalCount,
			CurrentPage:  page,
			PerPage:      limit,
			TotalPages:   totalPages,
			NextPage:     nextPage,
			PreviousPage: previousPage,
		},
	}, nil
}

// Get looks a link up by its short identifier, cache first. Absence is
// not an error: a missing link returns (nil, nil) and the caller decides
// how to surface it.
func (s *service) Get(ctx context.Context, shortID string) (*Link, error) {
	const op = "links.service.Get"

	if shortID == "" {
		return nil, errx.E(op, errx.Invalid, errors.New("short identifier cannot be empty"))
	}

	key := s.shortURL(shortID)

	if link := s.cacheGet(ctx, key); link != nil {
		return link, nil
	}

	link, err := s.store.FindByURL(ctx, key)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	if link == nil {
		return nil, nil
	}

	s.cacheSet(ctx, key, *link)
	return link, nil
}

// Update applies a partial patch to the record with the given id.
func (s *service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Link, error) {
	const op = "links.service.Update"

	updated, err := s.store.Update(ctx, id, params)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}

	s.cacheDelete(ctx, updated.URL)
	return updated, nil
}

// Delete removes the record with the given id and returns it.
func (s *service) Delete(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "links.service.Delete"

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}

	s.cacheDelete(ctx, deleted.URL)
	return deleted, nil
}

// cacheGet returns the cached link for key, or nil on miss. Any cache
// failure degrades to a miss.
func (s *service) cacheGet(ctx context.Context, key string) *Link {
	if s.cache == nil {
		return nil
	}

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheOperations.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return nil
	}
	if !ok {
		metrics.CacheOperations.WithLabelValues("miss").Inc()
		return nil
	}

	var link Link
	if err := json.Unmarshal(raw, &link); err != nil {
		metrics.CacheOperations.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "cache entry corrupt, dropping", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		return nil
	}

	metrics.CacheOperations.WithLabelValues("hit").Inc()
	return &link
}

// cacheSet stores a link under key, best effort.
func (s *service) cacheSet(ctx context.Context, key string, link Link) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(link)
	if err != nil {
		s.logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		metrics.CacheOperations.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

// cacheDelete invalidates key, best effort.
func (s *service) cacheDelete(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		metrics.CacheOperations.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "cache invalidation failed", "key", key, "error", err)
	}
}
