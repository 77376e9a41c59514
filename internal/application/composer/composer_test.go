package composer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gourmetguru/api/internal/domain/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type recorder struct {
	mu          sync.Mutex
	searches    []search.Filters
	suggestions [][]string
}

func (r *recorder) onSearch(f search.Filters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, f)
}

func (r *recorder) onSuggestions(items []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions = append(r.suggestions, items)
}

func (r *recorder) searchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.searches)
}

func (r *recorder) lastSearch() search.Filters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.searches[len(r.searches)-1]
}

func (r *recorder) lastSuggestions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.suggestions) == 0 {
		return nil
	}
	return r.suggestions[len(r.suggestions)-1]
}

type ComposerTestSuite struct {
	suite.Suite
	rec      *recorder
	calls    atomic.Int32
	queries  chan string
	composer *Composer
}

func (s *ComposerTestSuite) SetupTest() {
	s.rec = &recorder{}
	s.calls.Store(0)
	s.queries = make(chan string, 16)
	suggest := func(_ context.Context, q string) []string {
		s.calls.Add(1)
		s.queries <- q
		return []string{q + "o", q + "illo"}
	}
	s.composer = New(context.Background(), suggest, Options{
		Debounce:      20 * time.Millisecond,
		OnSearch:      s.rec.onSearch,
		OnSuggestions: s.rec.onSuggestions,
	})
}

func (s *ComposerTestSuite) TearDownTest() {
	s.composer.Close()
}

func (s *ComposerTestSuite) TestStartEmitsDefaultFilters() {
	s.composer.Start()

	s.Require().Equal(1, s.rec.searchCount())
	s.True(s.rec.lastSearch().IsDefault())
}

func (s *ComposerTestSuite) TestTypingIsDebounced() {
	s.composer.SetInput("t")
	s.composer.SetInput("to")
	s.composer.SetInput("tom")

	select {
	case q := <-s.queries:
		s.Equal("tom", q)
	case <-time.After(time.Second):
		s.FailNow("autocomplete was never called")
	}
	s.Eventually(func() bool {
		return len(s.rec.lastSuggestions()) == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	s.Equal(int32(1), s.calls.Load())
	s.Equal([]string{"tomo", "tomillo"}, s.composer.Suggestions())
	s.Zero(s.rec.searchCount(), "typing never searches")
}

func (s *ComposerTestSuite) TestClearingInputCancelsPendingAutocomplete() {
	s.composer.SetInput("tom")
	s.composer.SetInput("")

	time.Sleep(60 * time.Millisecond)
	s.Zero(s.calls.Load())
	s.Empty(s.composer.Suggestions())
}

func (s *ComposerTestSuite) TestClearingInputClearsSuggestions() {
	s.composer.SetInput("egg")
	s.Eventually(func() bool { return len(s.composer.Suggestions()) > 0 }, time.Second, 5*time.Millisecond)

	s.composer.SetInput("")

	s.Empty(s.composer.Suggestions())
	s.Equal([]string{}, s.rec.lastSuggestions())
}

func (s *ComposerTestSuite) TestCommitAddsIngredientAndSearches() {
	s.composer.SetInput("tomato")
	s.True(s.composer.CommitInput())

	s.Empty(s.composer.Input())
	s.Empty(s.composer.Suggestions())
	s.Require().Equal(1, s.rec.searchCount())
	s.Equal([]string{"tomato"}, s.rec.lastSearch().Ingredients)

	time.Sleep(60 * time.Millisecond)
	s.Zero(s.calls.Load(), "commit cancels the pending autocomplete")
}

func (s *ComposerTestSuite) TestDuplicateAndBlankCommitsAreNoOps() {
	s.True(s.composer.Commit("basil"))
	s.False(s.composer.Commit("basil"))
	s.False(s.composer.Commit("   "))

	s.Equal(1, s.rec.searchCount())
	s.Equal([]string{"basil"}, s.composer.Filters().Ingredients)
}

func (s *ComposerTestSuite) TestRemove() {
	s.composer.Commit("egg")
	s.composer.Commit("rice")

	s.True(s.composer.Remove("egg"))
	s.False(s.composer.Remove("egg"))

	s.Equal(3, s.rec.searchCount())
	s.Equal([]string{"rice"}, s.rec.lastSearch().Ingredients)
}

func (s *ComposerTestSuite) TestSelectorsSearchOnlyOnChange() {
	s.Require().NoError(s.composer.SetDiet("vegan"))
	s.Require().NoError(s.composer.SetDiet("vegan"))
	s.Require().NoError(s.composer.SetCuisine("thai"))
	s.Require().NoError(s.composer.SetServings(4))
	s.Require().NoError(s.composer.SetServings(4))

	s.Equal(3, s.rec.searchCount())
	last := s.rec.lastSearch()
	s.Equal(search.DietVegan, last.Diet)
	s.Equal(search.CuisineThai, last.Cuisine)
	s.Equal(4, last.Servings)
}

func (s *ComposerTestSuite) TestSelectorsRejectUnknownValues() {
	s.ErrorIs(s.composer.SetDiet("carnivore"), search.ErrUnknownDiet)
	s.ErrorIs(s.composer.SetCuisine("martian"), search.ErrUnknownCuisine)
	s.ErrorIs(s.composer.SetServings(-1), search.ErrInvalidServings)
	s.Zero(s.rec.searchCount())
}

func (s *ComposerTestSuite) TestSnapshotsAreIndependent() {
	s.composer.Commit("egg")
	first := s.rec.lastSearch()
	s.composer.Commit("rice")

	s.Equal([]string{"egg"}, first.Ingredients)
}

func TestComposerTestSuite(t *testing.T) {
	suite.Run(t, new(ComposerTestSuite))
}

func TestStaleSuggestionsAreDropped(t *testing.T) {
	release := make(chan struct{})
	var got [][]string
	var mu sync.Mutex

	suggest := func(_ context.Context, q string) []string {
		if q == "to" {
			<-release
		}
		return []string{q + "!"}
	}
	c := New(context.Background(), suggest, Options{
		Debounce: 5 * time.Millisecond,
		OnSuggestions: func(items []string) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, items)
		},
	})
	defer c.Close()

	c.SetInput("to")
	time.Sleep(30 * time.Millisecond)
	c.SetInput("tom")

	require.Eventually(t, func() bool {
		return len(c.Suggestions()) == 1 && c.Suggestions()[0] == "tom!"
	}, time.Second, 5*time.Millisecond)

	close(release)
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, []string{"tom!"}, c.Suggestions())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]string{{"tom!"}}, got)
}

func TestClosedComposerIgnoresEdits(t *testing.T) {
	searches := 0
	c := New(context.Background(), func(context.Context, string) []string { return nil }, Options{
		OnSearch: func(search.Filters) { searches++ },
	})
	c.Close()

	assert.False(t, c.Commit("egg"))
	assert.NoError(t, c.SetDiet("vegan"))
	assert.Zero(t, searches)
}
