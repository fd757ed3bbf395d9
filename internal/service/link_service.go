package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"snaplink/internal/cache"
	"snaplink/internal/entities"
	"snaplink/internal/geoip"
	"snaplink/internal/models"
	"snaplink/internal/repository"
	"snaplink/internal/shortcode"

	"github.com/rs/zerolog"
)

const (
	// DefaultValidityMinutes applies when the request carries no validity.
	DefaultValidityMinutes = 30

	// MaxValidityMinutes caps a link's validity window at one year so the
	// expiry arithmetic stays inside time.Duration range.
	MaxValidityMinutes = 366 * 24 * 60

	// maxGenerateAttempts bounds the collision-retry loop for generated codes.
	maxGenerateAttempts = 5

	// maxCacheTTL caps how long a link lookup stays cached.
	maxCacheTTL = time.Hour
)

// LinkService defines the interface for link business logic
type LinkService interface {
	// Create allocates a shortcode (custom or generated) and registers the mapping.
	Create(ctx context.Context, req *models.CreateLinkRequest, baseURL string) (*models.CreateLinkResponse, error)
	// Resolve returns the target URL for a code and records the click.
	Resolve(ctx context.Context, shortCode string, visit models.Visit) (string, error)
	// Stats returns the public statistics view of a link.
	Stats(ctx context.Context, shortCode string) (*models.LinkStatsResponse, error)
}

type linkService struct {
	repo    repository.LinkRepository
	cache   cache.Cache
	locator geoip.Locator
	log     zerolog.Logger
	now     func() time.Time
}

// NewLinkService creates a new link service. cacheClient may be nil, in
// which case every lookup goes to the repository.
func NewLinkService(repo repository.LinkRepository, cacheClient cache.Cache, locator geoip.Locator, log zerolog.Logger) LinkService {
	return &linkService{
		repo:    repo,
		cache:   cacheClient,
		locator: locator,
		log:     log,
		now:     time.Now,
	}
}

// cachedLink is the redirect lookup payload kept in Redis. Expiry travels
// with it so cached entries get the same expiry check as fresh rows.
type cachedLink struct {
	OriginalURL string    `json:"original_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cacheKey(shortCode string) string {
	return "link:" + shortCode
}

func (s *linkService) Create(ctx context.Context, req *models.CreateLinkRequest, baseURL string) (*models.CreateLinkResponse, error) {
	if !isValidTarget(req.URL) {
		return nil, ErrInvalidURL
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(validityMinutes(req.Validity)) * time.Minute)

	link := &entities.Link{
		OriginalURL: req.URL,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}

	if req.ShortCode != nil && strings.TrimSpace(*req.ShortCode) != "" {
		customCode := strings.TrimSpace(*req.ShortCode)
		if !shortcode.IsValidCustom(customCode) {
			return nil, ErrInvalidShortcode
		}

		// Single attempt: the insert is the atomic uniqueness check, so
		// two racing requests for the same code get exactly one success.
		link.ShortCode = customCode
		if err := s.repo.Create(ctx, link); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return nil, ErrShortcodeTaken
			}
			return nil, fmt.Errorf("failed to create link: %w", err)
		}
	} else {
		if err := s.createGenerated(ctx, link); err != nil {
			return nil, err
		}
	}

	s.cacheLink(ctx, link)

	s.log.Info().
		Str("short_code", link.ShortCode).
		Time("expires_at", link.ExpiresAt).
		Msg("link created")

	return &models.CreateLinkResponse{
		ShortCode: link.ShortCode,
		ShortLink: fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), link.ShortCode),
		Expiry:    link.ExpiresAt,
	}, nil
}

// createGenerated draws candidates until one inserts cleanly. An insert
// conflict counts as a collision; after the bound the allocation fails
// instead of proceeding with a colliding candidate.
func (s *linkService) createGenerated(ctx context.Context, link *entities.Link) error {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := shortcode.Generate()
		if err != nil {
			return fmt.Errorf("failed to generate shortcode: %w", err)
		}

		link.ShortCode = code
		err = s.repo.Create(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return fmt.Errorf("failed to create link: %w", err)
		}

		s.log.Warn().Str("short_code", code).Int("attempt", attempt+1).Msg("generated shortcode collided")
	}

	return ErrAllocationExhausted
}

func (s *linkService) Resolve(ctx context.Context, shortCode string, visit models.Visit) (string, error) {
	originalURL, expiresAt, err := s.lookup(ctx, shortCode)
	if err != nil {
		return "", err
	}

	now := s.now()
	if !now.Before(expiresAt) {
		s.evict(ctx, shortCode)
		return "", ErrExpired
	}

	click := &entities.Click{
		ClickedAt: now,
		Referrer:  visit.Referrer,
		IPAddress: visit.IPAddress,
		Location:  s.locator.Locate(visit.IPAddress),
	}

	// Synchronous append: the redirect only succeeds once the click count
	// and log have moved together.
	if err := s.repo.AppendClick(ctx, shortCode, click); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Reaped between lookup and append.
			s.evict(ctx, shortCode)
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to record click: %w", err)
	}

	return originalURL, nil
}

func (s *linkService) Stats(ctx context.Context, shortCode string) (*models.LinkStatsResponse, error) {
	link, clicks, err := s.repo.GetStats(ctx, shortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	if link.Expired(s.now()) {
		return nil, ErrExpired
	}

	views := make([]models.ClickView, len(clicks))
	for i, c := range clicks {
		views[i] = models.ClickView{
			Timestamp: c.ClickedAt,
			Referrer:  c.Referrer,
			Location:  c.Location,
		}
	}

	return &models.LinkStatsResponse{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
		Expiry:      link.ExpiresAt,
		TotalClicks: link.ClickCount,
		Clicks:      views,
	}, nil
}

// lookup resolves a code to its target and expiry, consulting the cache first.
func (s *linkService) lookup(ctx context.Context, shortCode string) (string, time.Time, error) {
	if s.cache != nil {
		var cached cachedLink
		err := s.cache.GetJSON(ctx, cacheKey(shortCode), &cached)
		if err == nil {
			return cached.OriginalURL, cached.ExpiresAt, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Str("short_code", shortCode).Msg("cache lookup failed")
		}
	}

	link, err := s.repo.FindByCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, repository.ErrNotFound
		}
		return "", time.Time{}, fmt.Errorf("failed to find link: %w", err)
	}

	s.cacheLink(ctx, link)
	return link.OriginalURL, link.ExpiresAt, nil
}

func (s *linkService) cacheLink(ctx context.Context, link *entities.Link) {
	if s.cache == nil {
		return
	}

	ttl := link.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if ttl > maxCacheTTL {
		ttl = maxCacheTTL
	}

	payload := cachedLink{OriginalURL: link.OriginalURL, ExpiresAt: link.ExpiresAt}
	if err := s.cache.SetJSON(ctx, cacheKey(link.ShortCode), payload, ttl); err != nil {
		s.log.Warn().Err(err).Str("short_code", link.ShortCode).Msg("failed to cache link")
	}
}

func (s *linkService) evict(ctx context.Context, shortCode string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(shortCode)); err != nil {
		s.log.Warn().Err(err).Str("short_code", shortCode).Msg("failed to evict cached link")
	}
}

// validityMinutes clamps the requested validity to whole minutes in
// [1, MaxValidityMinutes], defaulting when absent. The float is bounded
// before the int conversion, which is undefined for out-of-range values.
func validityMinutes(validity *float64) int {
	if validity == nil {
		return DefaultValidityMinutes
	}
	v := math.Floor(*validity)
	if math.IsNaN(v) {
		return DefaultValidityMinutes
	}
	if v < 1 {
		return 1
	}
	if v > MaxValidityMinutes {
		return MaxValidityMinutes
	}
	return int(v)
}

// isValidTarget accepts only absolute http/https URLs with a host.
func isValidTarget(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
