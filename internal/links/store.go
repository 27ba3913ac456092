// Package links owns the user's shortened-link collection: the ordered
// list (newest first), the server-reported total count, and the quota
// ceiling. The list and count mutate only on confirmed server
// operations; the one exception is the optimistic click counter, which
// is display telemetry and deliberately never reconciled.
//
// Every confirmed create and delete routes the new count through a
// single commit path that also writes the session's cached owned-count,
// so the two stores cannot drift apart.
package links

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/sundayezeilo/shortener-cli/internal/api"
	"github.com/sundayezeilo/shortener-cli/internal/errx"
)

// ShortLink is one shortened URL owned by the session's user. ID is
// immutable once assigned by the service; Clicks only grows locally.
type ShortLink struct {
	ID          string
	OriginalURL string
	ShortCode   string
	ShortURL    string
	Clicks      int
	CreatedAt   time.Time
}

// LinksAPI is the slice of the transport client the collection store needs.
type LinksAPI interface {
	ListLinks(ctx context.Context) (api.LinkPage, error)
	CreateLink(ctx context.Context, originalURL string) (api.Link, error)
	DeleteLink(ctx context.Context, id string) error
}

// OwnedCountSink receives the user's owned-link count after every
// confirmed create or delete. The session store implements it.
type OwnedCountSink interface {
	UpdateOwnedCount(n int)
}

// Store is the link collection store. The mutex guards field access
// only and is never held across a network call; concurrent creates are
// not serialized here, the service's own quota enforcement is the final
// arbiter (the client-side check is a best-effort guard).
type Store struct {
	mu     sync.Mutex
	api    LinksAPI
	counts OwnedCountSink
	logger *slog.Logger

	links      []ShortLink
	totalCount int
	limit      int
	loading    bool
	err        error
}

// StoreConfig holds configuration for the link collection store.
type StoreConfig struct {
	API    LinksAPI
	Counts OwnedCountSink
	Logger *slog.Logger
}

// DefaultLimit is the quota assumed until the first fetch reports the
// real ceiling.
const DefaultLimit = 100

// NewStore creates an empty collection store. Call FetchAll to populate
// it; the collection is never cached across processes.
func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:    cfg.API,
		counts: cfg.Counts,
		logger: logger,
		limit:  DefaultLimit,
	}
}

// FetchAll replaces the whole collection and its metadata with the
// server's view. On failure nothing is replaced.
func (s *Store) FetchAll(ctx context.Context) error {
	s.begin()

	page, err := s.api.ListLinks(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}

	fresh := make([]ShortLink, 0, len(page.Links))
	for _, l := range page.Links {
		fresh = append(fresh, fromWire(l))
	}
	s.links = fresh
	s.totalCount = page.TotalCount
	s.limit = page.Limit
	s.logger.Debug("link collection replaced", "total", page.TotalCount, "limit", page.Limit)
	return nil
}

// Create shortens originalURL. The quota is checked first against the
// last-known counts: when the collection is full the call fails with
// QuotaExceeded before any network traffic. On confirmed success the
// new link is prepended (newest first) and the count committed.
func (s *Store) Create(ctx context.Context, originalURL string) (ShortLink, error) {
	const op = "links.Create"

	if err := validateURL(originalURL); err != nil {
		err = errx.E(op, errx.Invalid, err)
		s.setErr(err)
		return ShortLink{}, err
	}

	s.mu.Lock()
	if s.totalCount >= s.limit {
		err := errx.E(op, errx.QuotaExceeded,
			fmt.Errorf("url limit reached (%d/%d)", s.totalCount, s.limit))
		s.err = err
		s.mu.Unlock()
		return ShortLink{}, err
	}
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	created, err := s.api.CreateLink(ctx, originalURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return ShortLink{}, err
	}

	link := fromWire(created)
	s.links = append([]ShortLink{link}, s.links...)
	s.commitCountLocked(s.totalCount + 1)
	s.logger.Debug("link created", "id", link.ID, "short_code", link.ShortCode)
	return link, nil
}

// Delete removes the link with the given id. Collection and count
// change only on a confirmed success; a failed delete leaves both at
// their pre-call values.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.begin()

	err := s.api.DeleteLink(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}

	for i, l := range s.links {
		if l.ID == id {
			s.links = append(s.links[:i], s.links[i+1:]...)
			break
		}
	}
	s.commitCountLocked(s.totalCount - 1)
	s.logger.Debug("link deleted", "id", id)
	return nil
}

// IncrementClick bumps the local click counter for a link the user just
// activated. Fire and forget: no network call, no rollback, unknown ids
// are ignored.
func (s *Store) IncrementClick(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.links {
		if s.links[i].ID == id {
			s.links[i].Clicks++
			return
		}
	}
}

// ClearError clears only the transient error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

// Links returns a copy of the collection, newest first.
func (s *Store) Links() []ShortLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ShortLink, len(s.links))
	copy(out, s.links)
	return out
}

// TotalCount returns the server-reported number of owned links.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCount
}

// Limit returns the server-reported quota ceiling.
func (s *Store) Limit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

// Loading reports whether a fetch/create/delete call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the transient error from the last failed operation.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = nil
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// commitCountLocked is the only write path for the owned-link count:
// it updates the store's total and mirrors it into the session's
// cached count in the same step, keeping the two equal.
func (s *Store) commitCountLocked(n int) {
	s.totalCount = n
	if s.counts != nil {
		s.counts.UpdateOwnedCount(n)
	}
}

func fromWire(l api.Link) ShortLink {
	return ShortLink{
		ID:          l.ID,
		OriginalURL: l.OriginalURL,
		ShortCode:   l.ShortCode,
		ShortURL:    l.ShortURL,
		Clicks:      l.Clicks,
		CreatedAt:   l.CreatedAt,
	}
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}
