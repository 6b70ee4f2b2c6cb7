// Package server holds background jobs run by the vault daemon.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Locker is the part of the vault service the auto-locker drives.
type Locker interface {
	Lock() error
	Unlocked() bool
}

// Activity records the time of the last authenticated request.
type Activity struct {
	last atomic.Int64
	now  func() time.Time
}

// NewActivity returns a tracker whose last activity is now.
func NewActivity() *Activity {
	a := &Activity{now: time.Now}
	a.Touch()
	return a
}

// Touch marks the current time as the last activity.
func (a *Activity) Touch() {
	a.last.Store(a.now().UnixNano())
}

// Idle returns how long ago the last activity happened.
func (a *Activity) Idle() time.Duration {
	return a.now().Sub(time.Unix(0, a.last.Load()))
}

// Middleware touches the tracker on every request.
func (a *Activity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.Touch()
		next.ServeHTTP(w, r)
	})
}

// StartAutoLocker locks the vault once it has been idle for longer than idle.
// The check runs every interval until ctx is cancelled. A non-positive idle
// disables the job.
func StartAutoLocker(
	ctx context.Context,
	locker Locker,
	activity *Activity,
	interval time.Duration,
	idle time.Duration,
	log *zap.Logger,
) {
	if idle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !locker.Unlocked() || activity.Idle() < idle {
					continue
				}
				if err := locker.Lock(); err != nil {
					log.Error("failed to auto-lock vault", zap.Error(err))
					continue
				}
				log.Info("vault auto-locked", zap.Duration("idle", idle))
			}
		}
	}()
}
