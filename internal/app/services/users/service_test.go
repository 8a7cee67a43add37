package users

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/exercise_tracker/internal/app/storage/memory"
	svcerrors "github.com/R3E-Network/exercise_tracker/internal/errors"
	"github.com/R3E-Network/exercise_tracker/pkg/testutil"
)

func TestService(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	bob, err := svc.Register(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "1", bob.ID)

	carol, err := svc.Register(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "2", carol.ID)

	again, err := svc.Register(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, again.ID, "registration must be idempotent")

	found, err := svc.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", found.Username)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"bob", "carol"}, []string{list[0].Username, list[1].Username})
}

func TestRegisterRequiresUsername(t *testing.T) {
	svc := New(memory.New(), nil)
	for _, name := range []string{"", "   "} {
		_, err := svc.Register(context.Background(), name)
		svcErr := svcerrors.As(err)
		require.NotNil(t, svcErr)
		assert.Equal(t, http.StatusBadRequest, svcErr.HTTPStatus)
		assert.Equal(t, "Username is required", svcErr.Message)
	}
}

func TestGetUnknownUser(t *testing.T) {
	svc := New(memory.New(), nil)
	_, err := svc.Get(context.Background(), "999")
	svcErr := svcerrors.As(err)
	assert.Equal(t, http.StatusNotFound, svcErr.HTTPStatus)
	assert.Equal(t, "User not found", svcErr.Message)
}

func TestStoreFailuresBecomeInternal(t *testing.T) {
	store := testutil.NewFaultyStore(memory.New())
	store.Fail(testutil.OpCreateOrGetUser, testutil.OpGetUser, testutil.OpListUsers)
	svc := New(store, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave")
	assert.Equal(t, http.StatusInternalServerError, svcerrors.As(err).HTTPStatus)

	_, err = svc.Get(ctx, "1")
	assert.Equal(t, http.StatusInternalServerError, svcerrors.As(err).HTTPStatus)

	_, err = svc.List(ctx)
	assert.Equal(t, "Internal server error", svcerrors.As(err).PublicMessage())
}

func TestRegisterMatchesUsernameExactly(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	plain, err := svc.Register(ctx, "alice")
	require.NoError(t, err)
	padded, err := svc.Register(ctx, " alice ")
	require.NoError(t, err)
	upper, err := svc.Register(ctx, "Alice")
	require.NoError(t, err)

	assert.NotEqual(t, plain.ID, padded.ID)
	assert.NotEqual(t, plain.ID, upper.ID)
	assert.Equal(t, " alice ", padded.Username)

	again, err := svc.Register(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, padded.ID, again.ID)
}
