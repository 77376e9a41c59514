package saved

import (
	"context"
	"testing"

	"github.com/gourmetguru/api/internal/domain/recipe"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestViewModelWithoutIdentityRequiresLogin(t *testing.T) {
	service := &testutils.MockSavedRecipeService{}
	vm := NewViewModel(service)

	vm.SetIdentity(context.Background(), nil)
	st := vm.State()

	assert.True(t, st.RequiresLogin)
	assert.False(t, st.Loading)
	assert.Equal(t, MessageLoginRequired, st.Message)
	assert.Empty(t, st.Recipes)
	service.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestViewModelLoadsOnlyWhenUIDChanges(t *testing.T) {
	ctx := context.Background()
	factory := testutils.NewRecipeFactory(5)
	first := []recipe.SavedRecipe{factory.SavedRecipe(), factory.SavedRecipe()}

	service := &testutils.MockSavedRecipeService{}
	service.On("List", ctx, "u1").Return(first).Once()
	service.On("List", ctx, "u2").Return([]recipe.SavedRecipe{}).Once()

	vm := NewViewModel(service)
	vm.SetIdentity(ctx, &user.Identity{UID: "u1", Email: "a@example.com"})
	vm.SetIdentity(ctx, &user.Identity{UID: "u1", Email: "a@example.com"})

	st := vm.State()
	assert.Equal(t, first, st.Recipes)
	assert.False(t, st.Empty)
	assert.Empty(t, st.Message)

	vm.SetIdentity(ctx, &user.Identity{UID: "u2"})
	st = vm.State()
	assert.True(t, st.Empty)
	assert.Equal(t, MessageNoneSaved, st.Message)

	service.AssertExpectations(t)
}

func TestViewModelRefreshReloads(t *testing.T) {
	ctx := context.Background()
	service := &testutils.MockSavedRecipeService{}
	service.On("List", ctx, "u1").Return([]recipe.SavedRecipe{}).Twice()

	vm := NewViewModel(service)
	vm.SetIdentity(ctx, &user.Identity{UID: "u1"})
	vm.Refresh(ctx)

	service.AssertExpectations(t)
}

func TestViewModelSignOutClearsList(t *testing.T) {
	ctx := context.Background()
	service := &testutils.MockSavedRecipeService{}
	service.On("List", ctx, "u1").Return([]recipe.SavedRecipe{{ID: 1, Title: "Soup"}}).Once()

	vm := NewViewModel(service)
	vm.SetIdentity(ctx, &user.Identity{UID: "u1"})
	vm.SetIdentity(ctx, nil)

	st := vm.State()
	assert.True(t, st.RequiresLogin)
	assert.Empty(t, st.Recipes)
}

func TestViewModelReportsLoadingWhileInFlight(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	var vm *ViewModel

	service := &testutils.MockSavedRecipeService{}
	service.On("List", ctx, "u1").Run(func(mock.Arguments) {
		st := vm.State()
		assert.True(t, st.Loading)
		assert.False(t, st.Empty, "an in-flight load is not an empty result")
		close(release)
	}).Return([]recipe.SavedRecipe{}).Once()

	vm = NewViewModel(service)
	vm.SetIdentity(ctx, &user.Identity{UID: "u1"})
	<-release

	assert.False(t, vm.State().Loading)
}
