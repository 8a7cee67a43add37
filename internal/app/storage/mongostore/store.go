// Package mongostore implements the storage interfaces on a MongoDB database, one
// collection per entity kind.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/user"
	"github.com/R3E-Network/exercise_tracker/internal/app/idgen"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
)

const (
	usersCollection     = "users"
	exercisesCollection = "exercises"
	countersCollection  = "counters"
)

type userDoc struct {
	ID        string    `bson:"_id"`
	Seq       int64     `bson:"seq"`
	Username  string    `bson:"username"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d userDoc) toDomain() user.User {
	return user.User{ID: d.ID, Username: d.Username, CreatedAt: d.CreatedAt.UTC()}
}

type exerciseDoc struct {
	ID          string    `bson:"_id"`
	Seq         int64     `bson:"seq"`
	UserID      string    `bson:"user_id"`
	Description string    `bson:"description"`
	Duration    int       `bson:"duration"`
	Date        time.Time `bson:"date"`
}

func (d exerciseDoc) toDomain() exercise.Record {
	return exercise.Record{
		ID:          d.ID,
		UserID:      d.UserID,
		Description: d.Description,
		Duration:    d.Duration,
		Date:        d.Date.UTC(),
	}
}

// Store persists users and exercises in MongoDB.
type Store struct {
	users     *mongo.Collection
	exercises *mongo.Collection
	ids       idgen.Allocator
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ExerciseStore = (*Store)(nil)

// Connect opens a client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// New returns a store over db. A nil allocator uses the counters collection
// of the same database.
func New(db *mongo.Database, ids idgen.Allocator) *Store {
	if ids == nil {
		ids = &counterAllocator{counters: db.Collection(countersCollection)}
	}
	return &Store{
		users:     db.Collection(usersCollection),
		exercises: db.Collection(exercisesCollection),
		ids:       ids,
	}
}

// EnsureIndexes creates the unique username index and the exercise owner index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create username index: %w", err)
	}
	if _, err := s.exercises.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "seq", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create exercise owner index: %w", err)
	}
	return nil
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateOrGetUser(ctx context.Context, username string) (user.User, bool, error) {
	existing, err := s.userByName(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return user.User{}, false, err
	}

	id, seq, err := s.allocate(ctx, idgen.KindUser)
	if err != nil {
		return user.User{}, false, err
	}
	doc := userDoc{ID: id, Seq: seq, Username: username, CreatedAt: time.Now().UTC()}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			winner, err := s.userByName(ctx, username)
			if err != nil {
				return user.User{}, false, err
			}
			return winner, false, nil
		}
		return user.User{}, false, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), true, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return user.User{}, err
	}
	return doc.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.toDomain())
	}
	return result, nil
}

func (s *Store) userByName(ctx context.Context, username string) (user.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return user.User{}, err
	}
	return doc.toDomain(), nil
}

// --- ExerciseStore ----------------------------------------------------------

func (s *Store) AppendExercise(ctx context.Context, rec exercise.Record) (exercise.Record, error) {
	id, seq, err := s.allocate(ctx, idgen.KindExercise)
	if err != nil {
		return exercise.Record{}, err
	}
	rec.ID = id
	rec.Date = rec.Date.UTC()

	doc := exerciseDoc{
		ID:          rec.ID,
		Seq:         seq,
		UserID:      rec.UserID,
		Description: rec.Description,
		Duration:    rec.Duration,
		Date:        rec.Date,
	}
	if _, err := s.exercises.InsertOne(ctx, doc); err != nil {
		return exercise.Record{}, fmt.Errorf("insert exercise: %w", err)
	}
	return rec, nil
}

func (s *Store) ListExercises(ctx context.Context, userID string) ([]exercise.Record, error) {
	cur, err := s.exercises.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []exerciseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]exercise.Record, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.toDomain())
	}
	return result, nil
}

func (s *Store) allocate(ctx context.Context, kind idgen.Kind) (string, int64, error) {
	id, err := s.ids.Next(ctx, kind)
	if err != nil {
		return "", 0, fmt.Errorf("allocate %s id: %w", kind, err)
	}
	seq, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("allocator returned non-numeric %s id %q", kind, id)
	}
	return id, seq, nil
}

// counterAllocator keeps one document per kind in the counters collection.
type counterAllocator struct {
	counters *mongo.Collection
}

func (c *counterAllocator) Next(ctx context.Context, kind idgen.Kind) (string, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := c.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": string(kind)},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return "", fmt.Errorf("increment %s counter: %w", kind, err)
	}
	return strconv.FormatInt(doc.Seq, 10), nil
}
