// Package composer drives an interactive recipe search: it tracks the
// filter state a user edits, debounces ingredient autocomplete and emits a
// search every time the effective filters change.
package composer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gourmetguru/api/internal/domain/search"
	"go.uber.org/zap"
)

// DefaultDebounce is the autocomplete quiet period
const DefaultDebounce = 300 * time.Millisecond

// SuggestFunc returns autocomplete candidates for a partial ingredient
type SuggestFunc func(ctx context.Context, query string) []string

// Options configures a Composer. Nil callbacks are ignored.
type Options struct {
	Debounce      time.Duration
	OnSearch      func(search.Filters)
	OnSuggestions func([]string)
	Logger        *zap.Logger
}

// Composer holds the editable filter state of one search session. It is
// safe for concurrent use. Callbacks run without the lock held.
type Composer struct {
	ctx     context.Context
	suggest SuggestFunc
	opts    Options
	logger  *zap.Logger

	mu          sync.Mutex
	filters     search.Filters
	input       string
	suggestions []string
	inputSeq    uint64
	timer       *time.Timer
	closed      bool
}

// New creates a composer with default filters. ctx bounds every
// autocomplete call.
func New(ctx context.Context, suggest SuggestFunc, opts Options) *Composer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		ctx:         ctx,
		suggest:     suggest,
		opts:        opts,
		logger:      logger.Named("composer"),
		suggestions: []string{},
	}
}

// Start emits the search for the initial filter state
func (c *Composer) Start() {
	c.emitSearch(c.Filters())
}

// Filters returns a snapshot of the current filter state
func (c *Composer) Filters() search.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Clone()
}

// Input returns the current input buffer
func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Suggestions returns the suggestions currently shown
func (c *Composer) Suggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.suggestions...)
}

// SetInput replaces the input buffer. Blank input clears suggestions at
// once; anything else schedules an autocomplete after the debounce period,
// replacing any pending one.
func (c *Composer) SetInput(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.input = text
	c.inputSeq++
	c.stopTimerLocked()

	query := strings.TrimSpace(text)
	if query == "" {
		cleared := c.clearSuggestionsLocked()
		c.mu.Unlock()
		if cleared {
			c.emitSuggestions([]string{})
		}
		return
	}

	seq := c.inputSeq
	c.timer = time.AfterFunc(c.opts.Debounce, func() {
		c.fetchSuggestions(seq, query)
	})
	c.mu.Unlock()
}

func (c *Composer) fetchSuggestions(seq uint64, query string) {
	c.mu.Lock()
	stale := c.closed || seq != c.inputSeq
	c.mu.Unlock()
	if stale {
		return
	}

	items := c.suggest(c.ctx, query)
	if items == nil {
		items = []string{}
	}

	c.mu.Lock()
	if c.closed || seq != c.inputSeq {
		c.mu.Unlock()
		c.logger.Debug("Dropping stale suggestions", zap.String("query", query))
		return
	}
	c.suggestions = items
	c.mu.Unlock()

	c.emitSuggestions(append([]string{}, items...))
}

// Commit adds ingredient to the filters and clears the input and
// suggestions. Blank or already selected ingredients change nothing and
// trigger no search. It reports whether the ingredient was added.
func (c *Composer) Commit(ingredient string) bool {
	ingredient = strings.TrimSpace(ingredient)

	c.mu.Lock()
	if c.closed || !c.filters.AddIngredient(ingredient) {
		c.mu.Unlock()
		return false
	}
	c.input = ""
	c.inputSeq++
	c.stopTimerLocked()
	c.clearSuggestionsLocked()
	snapshot := c.filters.Clone()
	c.mu.Unlock()

	c.emitSuggestions([]string{})
	c.emitSearch(snapshot)
	return true
}

// CommitInput commits the current input buffer
func (c *Composer) CommitInput() bool {
	return c.Commit(c.Input())
}

// Remove drops ingredient from the filters
func (c *Composer) Remove(ingredient string) bool {
	c.mu.Lock()
	if c.closed || !c.filters.RemoveIngredient(ingredient) {
		c.mu.Unlock()
		return false
	}
	snapshot := c.filters.Clone()
	c.mu.Unlock()

	c.emitSearch(snapshot)
	return true
}

// SetDiet selects a diet. An empty value means any diet.
func (c *Composer) SetDiet(value string) error {
	diet, err := search.ParseDiet(value)
	if err != nil {
		return err
	}
	c.update(func(f *search.Filters) bool {
		if f.Diet == diet {
			return false
		}
		f.Diet = diet
		return true
	})
	return nil
}

// SetCuisine selects a cuisine. An empty value means any cuisine.
func (c *Composer) SetCuisine(value string) error {
	cuisine, err := search.ParseCuisine(value)
	if err != nil {
		return err
	}
	c.update(func(f *search.Filters) bool {
		if f.Cuisine == cuisine {
			return false
		}
		f.Cuisine = cuisine
		return true
	})
	return nil
}

// SetServings selects a servings count. Zero means any.
func (c *Composer) SetServings(n int) error {
	if n < 0 {
		return search.ErrInvalidServings
	}
	c.update(func(f *search.Filters) bool {
		if f.Servings == n {
			return false
		}
		f.Servings = n
		return true
	})
	return nil
}

// Close cancels any pending autocomplete. Later edits are ignored.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.inputSeq++
	c.stopTimerLocked()
}

func (c *Composer) update(apply func(f *search.Filters) bool) {
	c.mu.Lock()
	if c.closed || !apply(&c.filters) {
		c.mu.Unlock()
		return
	}
	snapshot := c.filters.Clone()
	c.mu.Unlock()

	c.emitSearch(snapshot)
}

func (c *Composer) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Composer) clearSuggestionsLocked() bool {
	had := len(c.suggestions) > 0
	c.suggestions = []string{}
	return had
}

func (c *Composer) emitSearch(f search.Filters) {
	if c.opts.OnSearch != nil {
		c.opts.OnSearch(f)
	}
}

func (c *Composer) emitSuggestions(items []string) {
	if c.opts.OnSuggestions != nil {
		c.opts.OnSuggestions(items)
	}
}
