package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/idgen"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
)

func TestDocumentConversion(t *testing.T) {
	local := time.FixedZone("UTC+2", 2*60*60)
	doc := exerciseDoc{ID: "4", Seq: 4, UserID: "1", Description: "row", Duration: 12, Date: time.Date(2024, 2, 1, 1, 0, 0, 0, local)}

	rec := doc.toDomain()
	assert.Equal(t, "4", rec.ID)
	assert.Equal(t, "1", rec.UserID)
	assert.Equal(t, time.UTC, rec.Date.Location())
	assert.Equal(t, 31, rec.Date.Day())
}

type stubAllocator struct{ id string }

func (s stubAllocator) Next(context.Context, idgen.Kind) (string, error) { return s.id, nil }

func TestAllocateRejectsNonNumericIDs(t *testing.T) {
	s := &Store{ids: stubAllocator{id: "abc"}}
	_, _, err := s.allocate(context.Background(), idgen.KindUser)
	require.Error(t, err)

	s.ids = stubAllocator{id: "12"}
	id, seq, err := s.allocate(context.Background(), idgen.KindUser)
	require.NoError(t, err)
	assert.Equal(t, "12", id)
	assert.EqualValues(t, 12, seq)
}

func TestStoreIntegration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set; skipping mongo integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	db := client.Database(fmt.Sprintf("exercise_tracker_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := New(db, nil)
	require.NoError(t, store.EnsureIndexes(ctx))

	bob, isNew, err := store.CreateOrGetUser(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "1", bob.ID)

	carol, _, err := store.CreateOrGetUser(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "2", carol.ID)

	again, isNew, err := store.CreateOrGetUser(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, bob.ID, again.ID)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)

	for i := 0; i < 3; i++ {
		_, err := store.AppendExercise(ctx, exercise.Record{
			UserID: bob.ID, Description: fmt.Sprintf("set-%d", i), Duration: 10 + i, Date: time.Now().UTC(),
		})
		require.NoError(t, err)
	}
	recs, err := store.ListExercises(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "set-0", recs[0].Description)

	_, err = store.GetUser(ctx, "999")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
