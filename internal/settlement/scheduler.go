// Package settlement decides when a business day has closed and hands
// its ledgers off for delivery.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taylorhuo194-ai/Newspaper/internal/state"
	"github.com/taylorhuo194-ai/Newspaper/internal/telegraph"
)

// State of the scheduler for one evaluation: outside the daily window or
// inside it.
type State int

const (
	Idle State = iota
	Settling
)

func (s State) String() string {
	if s == Settling {
		return "settling"
	}
	return "idle"
}

// LedgerCatalog is the slice of the ledger store the scheduler needs:
// existence checks and file identities for the target day.
type LedgerCatalog interface {
	Exists(key telegraph.LedgerKey) bool
	Path(key telegraph.LedgerKey) string
}

// Sink receives the closed day's ledger files. External collaborator;
// invoked at most once per evaluation, always with a non-empty file list.
type Sink interface {
	Send(ctx context.Context, files []string, day string) error
}

// MarkerStore persists the once-guard marker. Optional: when absent the
// scheduler keeps the original behavior of firing on every in-window
// evaluation.
type MarkerStore interface {
	Load(ctx context.Context) (state.Marker, error)
	Save(ctx context.Context, m state.Marker) error
}

// Decision reports what one evaluation concluded.
type Decision struct {
	State  State
	Target telegraph.Day
	Files  []string
	Sent   bool
	Reason string
}

// Scheduler evaluates the wall clock against the settlement window and
// triggers delivery of the just-closed business day.
type Scheduler struct {
	ledgers LedgerCatalog
	sink    Sink
	marker  MarkerStore
	clock   func() time.Time
	log     zerolog.Logger
}

// NewScheduler creates a scheduler. marker may be nil (guard disabled);
// a nil clock uses time.Now.
func NewScheduler(ledgers LedgerCatalog, sink Sink, marker MarkerStore, clock func() time.Time, log zerolog.Logger) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{ledgers: ledgers, sink: sink, marker: marker, clock: clock, log: log}
}

// Check runs one evaluation. Inside the window (or when forced) the
// target is the predecessor of the current business day, never the
// current one. A day with no ledgers is reported as "no data", not an
// error. A send failure is returned for the caller to report; ledgers
// are already durable and nothing is rolled back.
func (s *Scheduler) Check(ctx context.Context, force bool) (Decision, error) {
	now := s.clock().In(telegraph.Beijing)

	if !force && !telegraph.InSettleWindow(now) {
		s.log.Info().
			Str("now", now.Format("15:04")).
			Str("window", fmt.Sprintf("%s+%s", telegraph.BoundaryClock(), telegraph.SettleWindow)).
			Msg("outside settlement window")
		return Decision{State: Idle, Reason: "outside window"}, nil
	}

	target := telegraph.DayOf(now).Prev()
	d := Decision{State: Settling, Target: target}

	for _, tier := range []telegraph.Tier{telegraph.TierMajor, telegraph.TierGeneral} {
		key := telegraph.LedgerKey{Day: target, Tier: tier}
		if s.ledgers.Exists(key) {
			d.Files = append(d.Files, s.ledgers.Path(key))
		}
	}
	if len(d.Files) == 0 {
		d.Reason = "no data for target day"
		s.log.Info().Str("target", target.String()).Msg("no ledgers for target day, nothing to deliver")
		return d, nil
	}

	if s.marker != nil {
		m, err := s.marker.Load(ctx)
		if err != nil {
			// A broken guard must not block delivery.
			s.log.Warn().Err(err).Msg("once-guard unreadable, proceeding without it")
		} else if m.LastNotifiedDay == target.String() {
			d.Reason = "already notified"
			s.log.Info().Str("target", target.String()).Msg("target day already notified, skipping")
			return d, nil
		}
	}

	if err := s.sink.Send(ctx, d.Files, target.String()); err != nil {
		d.Reason = "delivery failed"
		return d, fmt.Errorf("deliver %s: %w", target, err)
	}
	d.Sent = true
	d.Reason = "delivered"
	s.log.Info().Str("target", target.String()).Int("files", len(d.Files)).Msg("ledgers delivered")

	if s.marker != nil {
		if err := s.marker.Save(ctx, state.Marker{LastNotifiedDay: target.String(), NotifiedAt: now}); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist once-guard marker")
		}
	}
	return d, nil
}
