package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zhguchie-tours/frontend/internal/core/domain/offline"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
)

// OfflineCacheConfig groups configuration parameters for the offline cache.
type OfflineCacheConfig struct {
	StorePrefix      string
	Version          int
	Manifest         offline.Manifest
	EntryTTL         time.Duration
	CleanupOldStores bool
}

// OfflineCacheService precaches a fixed manifest into a named store and
// answers intercepted requests cache-first.
type OfflineCacheService struct {
	store    ports.ResponseStore
	network  ports.Network
	prefix   string
	name     string
	manifest offline.Manifest
	ttl      time.Duration
	cleanup  bool
	logger   *logrus.Logger
	now      func() time.Time

	mu      sync.RWMutex
	phase   offline.Phase
	lastErr error
	updated time.Time
}

func NewOfflineCacheService(store ports.ResponseStore, network ports.Network, cfg *OfflineCacheConfig, logger *logrus.Logger) *OfflineCacheService {
	// Apply defaults
	prefix := "zhguchie-tours"
	version := 1
	manifest := offline.DefaultManifest()
	var ttl time.Duration
	var cleanup bool
	if cfg != nil {
		if cfg.StorePrefix != "" {
			prefix = cfg.StorePrefix
		}
		if cfg.Version > 0 {
			version = cfg.Version
		}
		if len(cfg.Manifest) > 0 {
			manifest = append(offline.Manifest(nil), cfg.Manifest...)
		}
		if cfg.EntryTTL > 0 {
			ttl = cfg.EntryTTL
		}
		cleanup = cfg.CleanupOldStores
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &OfflineCacheService{
		store:    store,
		network:  network,
		prefix:   prefix,
		name:     offline.StoreName(prefix, version),
		manifest: manifest,
		ttl:      ttl,
		cleanup:  cleanup,
		logger:   logger,
		now:      time.Now,
		phase:    offline.PhaseParsed,
		updated:  time.Now(),
	}
}

// StoreName returns the version-stamped name of the active store.
func (s *OfflineCacheService) StoreName() string { return s.name }

// Phase returns the current lifecycle phase.
func (s *OfflineCacheService) Phase() offline.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *OfflineCacheService) setPhase(p offline.Phase, err error) {
	s.mu.Lock()
	s.phase = p
	s.lastErr = err
	s.updated = s.now()
	s.mu.Unlock()
}

// Install fetches every manifest entry and persists them all, or nothing.
func (s *OfflineCacheService) Install(ctx context.Context) (*offline.InstallReport, error) {
	if err := s.manifest.Validate(); err != nil {
		s.setPhase(offline.PhaseRedundant, err)
		return nil, fmt.Errorf("%w: %w", offline.ErrInstallFailed, err)
	}

	report := &offline.InstallReport{ID: uuid.NewString(), Store: s.name}
	start := s.now()
	log := s.logger.WithFields(logrus.Fields{"install_id": report.ID, "store": s.name, "entries": len(s.manifest)})
	log.Info("offline cache install started")
	// An activated cache keeps serving while a reinstall runs.
	wasActive := s.Phase() == offline.PhaseActivated
	if !wasActive {
		s.setPhase(offline.PhaseInstalling, nil)
	}

	entries := make([]offline.Entry, len(s.manifest))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range s.manifest {
		i, path := i, path
		g.Go(func() error {
			entry, err := s.fetchManifestEntry(gctx, path)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.failInstall(log, wasActive, err)
	}

	for _, e := range entries {
		prev, ok, err := s.store.Match(ctx, s.name, e.Key)
		if err == nil && ok && prev.Digest == e.Response.Digest {
			report.Unchanged++
		}
	}
	if err := s.store.PutAll(ctx, s.name, entries); err != nil {
		return nil, s.failInstall(log, wasActive, fmt.Errorf("persist: %w", err))
	}
	report.Entries = len(entries)

	if s.cleanup {
		report.RemovedStore = s.removeOldStores(ctx, log)
	}

	report.Duration = s.now().Sub(start)
	s.setPhase(offline.PhaseActivated, nil)
	log.WithFields(logrus.Fields{"unchanged": report.Unchanged, "duration": report.Duration.String()}).Info("offline cache installed")
	return report, nil
}

func (s *OfflineCacheService) failInstall(log *logrus.Entry, wasActive bool, err error) error {
	if wasActive {
		s.setPhase(offline.PhaseActivated, err)
	} else {
		s.setPhase(offline.PhaseRedundant, err)
	}
	log.WithError(err).Error("offline cache install failed")
	return fmt.Errorf("%w: %w", offline.ErrInstallFailed, err)
}

// maxInstallRedirects bounds how many redirects a manifest fetch follows.
const maxInstallRedirects = 10

func (s *OfflineCacheService) fetchManifestEntry(ctx context.Context, path string) (offline.Entry, error) {
	u, err := url.Parse(path)
	if err != nil {
		return offline.Entry{}, fmt.Errorf("%s: %w", path, err)
	}
	// The network hands redirects back unchanged; install follows them and
	// stores the final response under the manifest path.
	target := u
	var resp *offline.Response
	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return offline.Entry{}, fmt.Errorf("%s: %w", path, err)
		}
		resp, err = s.network.Fetch(ctx, req)
		if err != nil {
			return offline.Entry{}, fmt.Errorf("%s: %w", path, err)
		}
		next, ok := redirectTarget(target, resp)
		if !ok {
			break
		}
		if hops >= maxInstallRedirects {
			return offline.Entry{}, fmt.Errorf("%s: stopped after %d redirects", path, maxInstallRedirects)
		}
		target = next
	}
	if !resp.OK() {
		return offline.Entry{}, fmt.Errorf("%s: unexpected status %d", path, resp.Status)
	}
	stored := resp.Clone()
	stored.StoredAt = s.now()
	stored.Digest = offline.Digest(stored.Body)
	return offline.Entry{Key: offline.PathKey(u.Path, u.RawQuery), Response: stored}, nil
}

// isVersionedStore reports whether name is <prefix>-v<digits>.
func (s *OfflineCacheService) isVersionedStore(name string) bool {
	version, ok := strings.CutPrefix(name, s.prefix+"-v")
	if !ok || version == "" {
		return false
	}
	for _, r := range version {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// redirectTarget returns the same-origin URL a 3xx response points to.
func redirectTarget(from *url.URL, resp *offline.Response) (*url.URL, bool) {
	switch resp.Status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return nil, false
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return nil, false
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return nil, false
	}
	abs := from.ResolveReference(ref)
	return &url.URL{Path: abs.Path, RawPath: abs.RawPath, RawQuery: abs.RawQuery}, true
}

func (s *OfflineCacheService) removeOldStores(ctx context.Context, log *logrus.Entry) []string {
	names, err := s.store.Stores(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to list stores for cleanup")
		return nil
	}
	var removed []string
	for _, n := range names {
		if n == s.name || !s.isVersionedStore(n) {
			continue
		}
		if err := s.store.DeleteStore(ctx, n); err != nil {
			log.WithError(err).WithField("old_store", n).Warn("failed to delete old store")
			continue
		}
		removed = append(removed, n)
	}
	if len(removed) > 0 {
		log.WithField("removed", removed).Info("old stores deleted")
	}
	return removed
}

// Intercept answers req from the store when possible, otherwise from the network.
// A network error is returned as is.
func (s *OfflineCacheService) Intercept(ctx context.Context, req *http.Request) (*offline.Response, offline.Source, error) {
	if s.Phase() == offline.PhaseActivated {
		if key, ok := offline.RequestKey(req); ok {
			resp, found, err := s.store.Match(ctx, s.name, key)
			switch {
			case err != nil:
				s.logger.WithFields(logrus.Fields{"store": s.name, "key": key}).WithError(err).Warn("store lookup failed; using network")
			case found && !s.expired(resp):
				return resp, offline.SourceStore, nil
			}
		}
	}
	resp, err := s.network.Fetch(ctx, req)
	if err != nil {
		return nil, offline.SourceNetwork, err
	}
	return resp, offline.SourceNetwork, nil
}

func (s *OfflineCacheService) expired(resp *offline.Response) bool {
	if s.ttl <= 0 || resp.StoredAt.IsZero() {
		return false
	}
	return s.now().Sub(resp.StoredAt) > s.ttl
}

func (s *OfflineCacheService) Status(ctx context.Context) offline.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := offline.Status{
		Store:    s.name,
		Phase:    s.phase,
		Manifest: append(offline.Manifest(nil), s.manifest...),
		Updated:  s.updated,
	}
	if s.ttl > 0 {
		st.EntryTTL = s.ttl.String()
	}
	if s.lastErr != nil {
		st.LastErr = s.lastErr.Error()
	}
	return st
}

// Keys lists the keys of the active store.
func (s *OfflineCacheService) Keys(ctx context.Context) ([]string, error) {
	return s.store.Keys(ctx, s.name)
}

func (s *OfflineCacheService) Stores(ctx context.Context) ([]string, error) {
	return s.store.Stores(ctx)
}

// DeleteStore removes a store by name. Deleting the active store makes every
// request a miss until the next install.
func (s *OfflineCacheService) DeleteStore(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("store name is required")
	}
	names, err := s.store.Stores(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		return fmt.Errorf("%w: %s", offline.ErrStoreNotFound, name)
	}
	if err := s.store.DeleteStore(ctx, name); err != nil {
		return err
	}
	s.logger.WithField("store", name).Info("store deleted")
	return nil
}
