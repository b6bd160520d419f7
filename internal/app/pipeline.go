// Package app wires the ingestion and settlement stages into one
// invocation of the archiver.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taylorhuo194-ai/Newspaper/internal/classifier"
	"github.com/taylorhuo194-ai/Newspaper/internal/notify"
	"github.com/taylorhuo194-ai/Newspaper/internal/settlement"
	"github.com/taylorhuo194-ai/Newspaper/internal/telegraph"
)

// ErrNotConfigured is returned when the pipeline is run without its
// required dependencies.
var ErrNotConfigured = errors.New("pipeline dependencies not configured")

// Clock is the time source (substituted in tests).
type Clock func() time.Time

// Fetcher pulls the latest batch of raw items, newest-first.
type Fetcher interface {
	Fetch(ctx context.Context) ([]telegraph.RawItem, error)
}

// LedgerStore is the append-only per-(day, tier) ledger abstraction.
type LedgerStore interface {
	Exists(key telegraph.LedgerKey) bool
	Path(key telegraph.LedgerKey) string
	ReadLines(key telegraph.LedgerKey) (map[string]struct{}, error)
	EnsureHeader(key telegraph.LedgerKey) error
	Append(key telegraph.LedgerKey, line string) error
}

// Settler evaluates the settlement window and delivers closed days.
type Settler interface {
	Check(ctx context.Context, force bool) (settlement.Decision, error)
}

// DedupFunc decides whether candidate text duplicates committed ledger
// content. The policy is pluggable so tests can substitute exact match.
type DedupFunc func(candidate string, committed map[string]struct{}) bool

// SubstringDedup is the production policy: a candidate is a duplicate if
// it is contained in any committed line. Upstream only ever extends item
// text, so containment catches edited re-deliveries of the same item.
// The cost is that a genuinely new short item whose text happens to sit
// inside an older longer one is suppressed; that trade-off is accepted.
func SubstringDedup(candidate string, committed map[string]struct{}) bool {
	for line := range committed {
		if strings.Contains(line, candidate) {
			return true
		}
	}
	return false
}

// ExactDedup matches committed lines byte-for-byte. Test aid.
func ExactDedup(candidate string, committed map[string]struct{}) bool {
	_, ok := committed[candidate]
	return ok
}

// Report summarizes one ingestion pass.
type Report struct {
	Fetched int
	New     int
	Skipped int
	Touched []telegraph.LedgerKey
}

// PipelineDeps lists the pipeline's dependencies.
type PipelineDeps struct {
	Fetcher     Fetcher
	Ledgers     LedgerStore
	Settler     Settler
	Dedup       DedupFunc
	Clock       Clock
	Log         zerolog.Logger
	ForceSettle bool
}

// Pipeline runs one fetch → ingest → settlement-check invocation.
type Pipeline struct {
	fetcher     Fetcher
	ledgers     LedgerStore
	settler     Settler
	dedup       DedupFunc
	clock       Clock
	log         zerolog.Logger
	forceSettle bool
}

// NewPipeline creates a pipeline. Dedup defaults to SubstringDedup and
// Clock to time.Now.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	dedup := deps.Dedup
	if dedup == nil {
		dedup = SubstringDedup
	}
	return &Pipeline{
		fetcher:     deps.Fetcher,
		ledgers:     deps.Ledgers,
		settler:     deps.Settler,
		dedup:       dedup,
		clock:       clock,
		log:         deps.Log,
		forceSettle: deps.ForceSettle,
	}
}

// Run executes one full invocation: fetch the latest batch, ingest it,
// then evaluate settlement. Upstream being unavailable degrades to an
// empty batch; a delivery failure is reported but never unwinds ledger
// state. Only missing wiring is a hard error.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.validateDeps(); err != nil {
		return err
	}
	start := p.clock()

	p.log.Info().Msg("step 1: fetching latest telegraph batch")
	items, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("fetch failed, continuing with empty batch")
		items = nil
	}

	rep := p.Ingest(ctx, items, true)
	if rep.New > 0 {
		p.log.Info().Int("new", rep.New).Int("fetched", rep.Fetched).Int("ledgers", len(rep.Touched)).Msg("new entries committed")
	} else {
		p.log.Info().Int("fetched", rep.Fetched).Msg("ledgers already up to date")
	}

	p.log.Info().Msg("step 2: settlement check")
	if _, err := p.settler.Check(ctx, p.forceSettle); err != nil {
		if errors.Is(err, notify.ErrNoCredentials) {
			p.log.Info().Msg("mail credentials not configured, delivery skipped")
		} else {
			p.log.Error().Err(err).Msg("delivery failed, ledgers remain committed for the next window")
		}
	}

	p.log.Info().Dur("elapsed", p.clock().Sub(start)).Msg("invocation complete")
	return nil
}

// Ingest classifies and appends a batch. newestFirst states the order of
// items as delivered; processing is always oldest-first. Each ledger is
// read back once per invocation and freshly appended lines join that
// in-memory set, so the batch also dedups against itself. A failing item
// is logged and skipped; it never aborts the rest of the batch.
func (p *Pipeline) Ingest(ctx context.Context, items []telegraph.RawItem, newestFirst bool) Report {
	rep := Report{Fetched: len(items)}

	batch := items
	if newestFirst {
		batch = make([]telegraph.RawItem, len(items))
		for i, item := range items {
			batch[len(items)-1-i] = item
		}
	}

	cache := make(map[telegraph.LedgerKey]map[string]struct{})
	touched := make(map[telegraph.LedgerKey]struct{})

	for _, item := range batch {
		key, entry := classifier.Classify(item)

		committed, ok := cache[key]
		if !ok {
			var err error
			committed, err = p.ledgers.ReadLines(key)
			if err != nil {
				p.log.Error().Err(err).Str("ledger", p.ledgers.Path(key)).Msg("ledger unreadable, item skipped")
				rep.Skipped++
				continue
			}
			cache[key] = committed
		}

		if p.dedup(entry.Text, committed) {
			continue
		}

		if err := p.ledgers.EnsureHeader(key); err != nil {
			p.log.Error().Err(err).Str("ledger", p.ledgers.Path(key)).Msg("header write failed, item skipped")
			rep.Skipped++
			continue
		}
		line := entry.Line()
		if err := p.ledgers.Append(key, line); err != nil {
			p.log.Error().Err(err).Str("ledger", p.ledgers.Path(key)).Msg("append failed, item skipped")
			rep.Skipped++
			continue
		}

		committed[line] = struct{}{}
		rep.New++
		if _, seen := touched[key]; !seen {
			touched[key] = struct{}{}
			rep.Touched = append(rep.Touched, key)
		}
		p.log.Debug().Str("day", key.Day.String()).Str("tier", key.Tier.Label()).Str("time", entry.Time).Msg("entry committed")
	}

	return rep
}

func (p *Pipeline) validateDeps() error {
	switch {
	case p.fetcher == nil,
		p.ledgers == nil,
		p.settler == nil,
		p.dedup == nil,
		p.clock == nil:
		return ErrNotConfigured
	default:
		return nil
	}
}
