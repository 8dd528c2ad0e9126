package ledgerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classched/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingsCollection holds one document per live registration.
const BookingsCollection = "bookings"

// MongoLedger implements Ledger on a MongoDB collection.
type MongoLedger struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoLedger constructs a ledger backed by db's bookings collection.
func NewMongoLedger(db *mongo.Database) *MongoLedger {
	return &MongoLedger{
		coll: db.Collection(BookingsCollection),
		now:  time.Now,
	}
}

func newContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// Create inserts a booking; the unique registration_id index rejects duplicates.
func (repo *MongoLedger) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := repo.now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if _, err := repo.coll.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("error creating booking %d: %w", booking.RegistrationID, err)
	}
	return nil
}

// Update replaces the mutable fields of a live booking.
func (repo *MongoLedger) Update(ctx context.Context, registrationID int64, booking *models.Booking) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	booking.RegistrationID = registrationID
	booking.UpdatedAt = repo.now().UTC()
	update := bson.M{
		"$set": bson.M{
			"student_id":    booking.StudentID,
			"instructor_id": booking.InstructorID,
			"class_type_id": booking.ClassTypeID,
			"start_time":    booking.StartTime,
			"end_time":      booking.EndTime,
			"updated_at":    booking.UpdatedAt,
		},
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"registration_id": registrationID}, update)
	if err != nil {
		return fmt.Errorf("error updating booking %d: %w", registrationID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the booking so its registration id can be reused.
func (repo *MongoLedger) Delete(ctx context.Context, registrationID int64) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := repo.coll.DeleteOne(ctx, bson.M{"registration_id": registrationID})
	if err != nil {
		return fmt.Errorf("error deleting booking %d: %w", registrationID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoLedger) Get(ctx context.Context, registrationID int64) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctx, bson.M{"registration_id": registrationID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %d: %w", registrationID, err)
	}
	return &booking, nil
}

func (repo *MongoLedger) ListByEntity(ctx context.Context, kind models.EntityKind, entityID int64, from, to time.Time) ([]models.Booking, error) {
	field, err := entityField(kind)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		field:        entityID,
		"start_time": bson.M{"$gte": from, "$lte": to},
	}
	return repo.find(ctx, filter)
}

func (repo *MongoLedger) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	return repo.find(ctx, filterDocument(filter))
}

// CountByInstructor groups matching bookings by instructor.
func (repo *MongoLedger) CountByInstructor(ctx context.Context, filter models.BookingFilter) (map[int64]int, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filterDocument(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$instructor_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating bookings per instructor: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[int64]int)
	for cursor.Next(ctx) {
		var row struct {
			InstructorID int64 `bson:"_id"`
			Count        int   `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("error decoding instructor count: %w", err)
		}
		counts[row.InstructorID] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return counts, nil
}

func (repo *MongoLedger) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "registration_id", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func filterDocument(filter models.BookingFilter) bson.M {
	doc := bson.M{}
	if filter.From != nil || filter.To != nil {
		rng := bson.M{}
		if filter.From != nil {
			rng["$gte"] = *filter.From
		}
		if filter.To != nil {
			rng["$lte"] = *filter.To
		}
		doc["start_time"] = rng
	}
	if filter.InstructorID != 0 {
		doc["instructor_id"] = filter.InstructorID
	}
	return doc
}
