package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/terrasight/tracker-sync/internal/core/domain"
	"github.com/terrasight/tracker-sync/internal/core/ports"
)

const (
	trackerLogCollection = "tracker_logs"
	duplicateKeyCode     = 11000
	defaultLogLimit      = 500
)

// TrackerLogRepository implements ports.TrackerLogRepository using MongoDB.
// Rows are unique on (identity, timestamp).
type TrackerLogRepository struct {
	coll *mongo.Collection
}

// NewTrackerLogRepository creates a new TrackerLogRepository.
func NewTrackerLogRepository(db *mongo.Database) ports.TrackerLogRepository {
	return &TrackerLogRepository{coll: db.Collection(trackerLogCollection)}
}

// Insert writes one row. A row already stored for the same key is not an error.
func (r *TrackerLogRepository) Insert(ctx context.Context, row domain.TrackerLog) error {
	row.Timestamp = row.Timestamp.UTC()
	if _, err := r.coll.InsertOne(ctx, row); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert tracker log: %w", err)
	}
	return nil
}

// InsertMany bulk-inserts rows without stopping at the first failure.
// Duplicate-key failures are ignored so a retried batch succeeds.
func (r *TrackerLogRepository) InsertMany(ctx context.Context, rows []domain.TrackerLog) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, len(rows))
	for i, row := range rows {
		row.Timestamp = row.Timestamp.UTC()
		docs[i] = row
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil || onlyDuplicates(err) {
		return nil
	}
	return fmt.Errorf("insert tracker logs: %w", err)
}

// FindByIdentity returns up to limit rows newer than since, oldest first.
func (r *TrackerLogRepository) FindByIdentity(ctx context.Context, identity string, since time.Time, limit int) ([]domain.TrackerLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	filter := bson.M{"identity": identity}
	if !since.IsZero() {
		filter["timestamp"] = bson.M{"$gt": since.UTC()}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find tracker logs: %w", err)
	}
	defer cur.Close(ctx)

	rows := make([]domain.TrackerLog, 0)
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode tracker logs: %w", err)
	}
	return rows, nil
}

// onlyDuplicates reports whether every write error in a bulk failure is a
// duplicate key.
func onlyDuplicates(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return false
	}
	if bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}
