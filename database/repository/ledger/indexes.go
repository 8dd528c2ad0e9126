package ledgerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the ledger relies on. The unique
// registration index is what makes Create fail with ErrDuplicateKey.
func (repo *MongoLedger) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "registration_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_registration_id"),
		},
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetName("student_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "instructor_id", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetName("instructor_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "class_type_id", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetName("class_type_start_idx"),
		},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
