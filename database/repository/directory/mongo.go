package directoryRepo

import (
	"context"
	"fmt"
	"time"

	"classched/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDirectory reads directory records from MongoDB.
type MongoDirectory struct {
	studentColl    *mongo.Collection
	instructorColl *mongo.Collection
	classTypeColl  *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{
		studentColl:    db.Collection("students"),
		instructorColl: db.Collection("instructors"),
		classTypeColl:  db.Collection("class_types"),
	}
}

func (d *MongoDirectory) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := d.instructorColl.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing instructors: %w", err)
	}
	defer cursor.Close(ctx)

	instructors := []models.Instructor{}
	if err := cursor.All(ctx, &instructors); err != nil {
		return nil, fmt.Errorf("error decoding instructors: %w", err)
	}
	return instructors, nil
}

func (d *MongoDirectory) InstructorNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return namesByID(ctx, d.instructorColl, ids)
}

func (d *MongoDirectory) StudentNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return namesByID(ctx, d.studentColl, ids)
}

func (d *MongoDirectory) ClassTypeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return namesByID(ctx, d.classTypeColl, ids)
}

// namesByID resolves ids against coll. Ids with no record are absent from the result.
func namesByID(ctx context.Context, coll *mongo.Collection, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"id": 1, "name": 1})
	cursor, err := coll.Find(ctx, bson.M{"id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s names: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var rec struct {
			ID   int64  `bson:"id"`
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("error decoding %s record: %w", coll.Name(), err)
		}
		names[rec.ID] = rec.Name
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return names, nil
}

// Seed replaces the directory collections with roster.
func (d *MongoDirectory) Seed(ctx context.Context, roster Roster) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	seeds := []struct {
		coll *mongo.Collection
		docs []interface{}
	}{
		{d.studentColl, toDocs(roster.Students)},
		{d.instructorColl, toDocs(roster.Instructors)},
		{d.classTypeColl, toDocs(roster.ClassTypes)},
	}
	for _, s := range seeds {
		if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("failed to clear %s: %w", s.coll.Name(), err)
		}
		if len(s.docs) == 0 {
			continue
		}
		if _, err := s.coll.InsertMany(ctx, s.docs); err != nil {
			return fmt.Errorf("failed to seed %s: %w", s.coll.Name(), err)
		}
	}
	return d.ensureIndexes(ctx)
}

func (d *MongoDirectory) ensureIndexes(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{d.studentColl, d.instructorColl, d.classTypeColl} {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func toDocs[T any](items []T) []interface{} {
	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		docs = append(docs, item)
	}
	return docs
}
