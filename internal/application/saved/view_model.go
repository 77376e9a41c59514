package saved

import (
	"context"
	"sync"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/ports/inbound"
)

// Messages shown in place of the saved recipes grid
const (
	MessageLoginRequired = "Please log in to view your saved recipes"
	MessageNoneSaved     = "You haven't saved any recipes yet"
)

// State is a snapshot of the saved recipes view
type State struct {
	Loading       bool                 `json:"loading"`
	Recipes       []recipe.SavedRecipe `json:"recipes"`
	Empty         bool                 `json:"empty"`
	RequiresLogin bool                 `json:"requires_login"`
	Message       string               `json:"message,omitempty"`
}

// ViewModel holds the saved recipes of the current identity. The list is
// reloaded only when the identity's uid changes or on Refresh.
type ViewModel struct {
	service inbound.SavedRecipeService

	mu       sync.Mutex
	identity *user.Identity
	loading  bool
	loadSeq  uint64
	recipes  []recipe.SavedRecipe
}

// NewViewModel creates a view-model with no identity
func NewViewModel(service inbound.SavedRecipeService) *ViewModel {
	return &ViewModel{
		service: service,
		recipes: []recipe.SavedRecipe{},
	}
}

// SetIdentity switches the view to identity. A nil identity clears the
// list without loading; the same uid as before is a no-op.
func (vm *ViewModel) SetIdentity(ctx context.Context, identity *user.Identity) {
	vm.mu.Lock()
	if sameUser(vm.identity, identity) {
		vm.identity = identity
		vm.mu.Unlock()
		return
	}
	vm.identity = identity
	vm.mu.Unlock()

	vm.Refresh(ctx)
}

// Refresh reloads the list for the current identity
func (vm *ViewModel) Refresh(ctx context.Context) {
	vm.mu.Lock()
	vm.loadSeq++
	seq := vm.loadSeq
	identity := vm.identity
	if identity == nil {
		vm.loading = false
		vm.recipes = []recipe.SavedRecipe{}
		vm.mu.Unlock()
		return
	}
	vm.loading = true
	vm.mu.Unlock()

	recipes := vm.service.List(ctx, identity.UID)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if seq != vm.loadSeq {
		return
	}
	vm.recipes = recipes
	vm.loading = false
}

// State returns a snapshot of the view
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	st := State{
		Loading: vm.loading,
		Recipes: append([]recipe.SavedRecipe(nil), vm.recipes...),
	}
	if st.Recipes == nil {
		st.Recipes = []recipe.SavedRecipe{}
	}

	switch {
	case vm.identity == nil:
		st.RequiresLogin = true
		st.Message = MessageLoginRequired
	case !vm.loading && len(vm.recipes) == 0:
		st.Empty = true
		st.Message = MessageNoneSaved
	}
	return st
}

func sameUser(a, b *user.Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID
}
