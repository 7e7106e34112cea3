package widget

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/zhguchie-tours/frontend/internal/core/domain/widget"
)

// Loader fetches the external booking widget script and resolves the
// readiness signal with the outcome.
type Loader struct {
	scriptURL  string
	client     *http.Client
	readiness  *domain.Readiness
	logger     *logrus.Logger
	retryFor   time.Duration
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewLoader builds a loader. Failed probes are retried with exponential
// backoff for up to retryFor; zero means a single probe.
func NewLoader(scriptURL string, timeout, retryFor time.Duration, readiness *domain.Readiness, logger *logrus.Logger) *Loader {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Loader{
		scriptURL:  scriptURL,
		client:     &http.Client{Timeout: timeout},
		readiness:  readiness,
		logger:     logger,
		retryFor:   retryFor,
		backoff:    250 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
}

// Load probes the script until it loads or the retry window closes. A final
// failure resolves the signal with domain.ErrUnreachable; later calls do not
// change an already resolved signal.
func (l *Loader) Load(ctx context.Context) error {
	err := l.probeWithRetry(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrUnreachable, err)
	}
	if l.readiness.Resolve(err) && l.logger != nil {
		entry := l.logger.WithField("script_url", l.scriptURL)
		if err != nil {
			entry.WithError(err).Warn("booking widget failed to load")
		} else {
			entry.Info("booking widget script loaded")
		}
	}
	return err
}

func (l *Loader) probeWithRetry(ctx context.Context) error {
	deadline := time.Now().Add(l.retryFor)
	wait := l.backoff
	for attempt := 1; ; attempt++ {
		err := l.probe(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || time.Now().Add(wait).After(deadline) {
			return err
		}
		if l.logger != nil {
			l.logger.WithFields(logrus.Fields{"script_url": l.scriptURL, "attempt": attempt, "retry_in": wait.String()}).WithError(err).Debug("booking widget probe failed")
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		wait = min(wait*2, l.maxBackoff)
	}
}

func (l *Loader) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.scriptURL, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
