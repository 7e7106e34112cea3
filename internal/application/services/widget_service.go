package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/domain/widget"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
)

// WidgetService waits on the readiness signal of the booking widget and
// initializes the widget the first time it is found ready.
type WidgetService struct {
	readiness *widget.Readiness
	scriptURL string
	timeout   time.Duration
	logger    *logrus.Logger
	now       func() time.Time

	initOnce      sync.Once
	initializedAt time.Time
}

func NewWidgetService(readiness *widget.Readiness, scriptURL string, timeout time.Duration, logger *logrus.Logger) *WidgetService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WidgetService{readiness: readiness, scriptURL: scriptURL, timeout: timeout, logger: logger, now: time.Now}
}

// Await returns widget.ErrTimeout if the loader has not resolved within the
// configured timeout, or the loader's error (widget.ErrUnreachable) if it failed.
func (s *WidgetService) Await(ctx context.Context) (ports.WidgetStatus, error) {
	status := ports.WidgetStatus{ScriptURL: s.scriptURL}
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.readiness.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = widget.ErrTimeout
		}
		if s.logger != nil {
			s.logger.WithField("script_url", s.scriptURL).WithError(err).Warn("booking widget not ready")
		}
		return status, err
	}

	s.initOnce.Do(func() {
		s.initializedAt = s.now()
		if s.logger != nil {
			s.logger.WithField("script_url", s.scriptURL).Info("booking widget initialized")
		}
	})
	status.Ready = true
	status.InitializedAt = s.initializedAt
	return status, nil
}
