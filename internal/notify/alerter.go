package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/prodtask/internal/model"
)

// AlertTitle is the title shown on every OS alert.
const AlertTitle = "新消息"

// Alerter raises an OS alert for the newest unread notification of the
// session user while it is still fresh. Each notification alerts at most once.
type Alerter struct {
	sink   Sink
	window time.Duration
	now    func() time.Time
	log    *zap.Logger

	mu   sync.Mutex
	last string
}

// NewAlerter returns an Alerter. A nil sink disables alerts entirely.
func NewAlerter(sink Sink, window time.Duration, log *zap.Logger) *Alerter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Alerter{
		sink:   sink,
		window: window,
		now:    time.Now,
		log:    log,
	}
}

// RequestPermission asks the sink for permission when it has not been asked yet.
func (a *Alerter) RequestPermission(ctx context.Context) Permission {
	if a == nil || a.sink == nil {
		return PermissionDenied
	}
	if p := a.sink.Permission(); p != PermissionDefault {
		return p
	}
	return a.sink.RequestPermission(ctx)
}

// Check inspects visible, which must be the session user's notifications
// sorted newest first, and alerts on the head if it qualifies. It reports
// whether an alert was delivered.
func (a *Alerter) Check(ctx context.Context, visible []model.Notification) bool {
	if a == nil || a.sink == nil || len(visible) == 0 {
		return false
	}

	latest := visible[0]
	if latest.Read || a.now().Sub(latest.Time()) >= a.window {
		return false
	}

	a.mu.Lock()
	if a.last == latest.ID {
		a.mu.Unlock()
		return false
	}
	a.last = latest.ID
	a.mu.Unlock()

	switch a.sink.Permission() {
	case PermissionDenied:
		return false
	case PermissionDefault:
		if a.sink.RequestPermission(ctx) != PermissionGranted {
			return false
		}
	}

	if err := a.sink.Show(ctx, AlertTitle, latest.Message); err != nil {
		a.log.Debug("alert not delivered", zap.String("notification_id", latest.ID), zap.Error(err))
		return false
	}
	return true
}
