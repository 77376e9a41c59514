package composer

import (
	"context"
	"sync"

	"github.com/gourmetguru/api/internal/domain/search"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"go.uber.org/zap"
)

// SearchFunc runs one search for a filter state
type SearchFunc func(ctx context.Context, filters search.Filters) *inbound.SearchResult

// ResultFunc receives the result of the latest dispatched search. It may
// prepare output freely but must publish it through Delivery.Commit.
type ResultFunc func(d *Delivery)

// Delivery is a completed search together with the filters it ran for
type Delivery struct {
	Seq     uint64
	Filters search.Filters
	Result  *inbound.SearchResult

	live *LiveSearch
}

// Commit runs publish only if no newer search has been dispatched since d
// was issued. Commits are serialized, so a publish that runs is never
// followed by one for an older search. It reports whether publish ran.
func (d *Delivery) Commit(publish func()) bool {
	d.live.commitMu.Lock()
	defer d.live.commitMu.Unlock()

	if !d.live.isLatest(d.Seq) {
		d.live.logger.Debug("Dropping stale search result", zap.Uint64("seq", d.Seq))
		return false
	}
	publish()
	return true
}

// LiveSearch runs at most one search that can still deliver. Each Dispatch
// cancels the previous search, and a result is delivered only if no newer
// search was dispatched before it completed.
type LiveSearch struct {
	search  SearchFunc
	deliver ResultFunc
	logger  *zap.Logger

	mu     sync.Mutex
	parent context.Context
	stop   context.CancelFunc
	cancel context.CancelFunc
	seq    uint64
	wg     sync.WaitGroup

	commitMu sync.Mutex
}

// NewLiveSearch creates a LiveSearch bound to ctx
func NewLiveSearch(ctx context.Context, fn SearchFunc, deliver ResultFunc, logger *zap.Logger) *LiveSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	parent, stop := context.WithCancel(ctx)
	return &LiveSearch{
		search:  fn,
		deliver: deliver,
		logger:  logger.Named("live-search"),
		parent:  parent,
		stop:    stop,
	}
}

// Dispatch starts a search for filters and returns its sequence number
func (l *LiveSearch) Dispatch(filters search.Filters) uint64 {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	ctx, cancel := context.WithCancel(l.parent)
	l.cancel = cancel
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer cancel()

		result := l.search(ctx, filters)
		if ctx.Err() != nil || !l.isLatest(seq) {
			l.logger.Debug("Dropping stale search result", zap.Uint64("seq", seq))
			return
		}
		l.deliver(&Delivery{Seq: seq, Filters: filters, Result: result, live: l})
	}()

	return seq
}

// Latest returns the sequence number of the most recent dispatch
func (l *LiveSearch) Latest() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

func (l *LiveSearch) isLatest(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return seq == l.seq
}

// Close cancels every search and waits for their goroutines to exit
func (l *LiveSearch) Close() {
	l.mu.Lock()
	l.seq++
	l.mu.Unlock()
	l.stop()
	l.wg.Wait()
}
