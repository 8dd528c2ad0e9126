package main

import (
	"context"
	"flag"
	"log"
	"time"

	"classched/config"
	"classched/database"
	directoryRepo "classched/database/repository/directory"
	ledgerRepo "classched/database/repository/ledger"

	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	resetBookings := flag.Bool("reset-bookings", false, "also remove every booking")
	flag.Parse()

	config.LoadConfig()
	database.InitDB()
	db := database.Database()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	roster := directoryRepo.DefaultRoster()
	if err := directoryRepo.NewMongoDirectory(db).Seed(ctx, roster); err != nil {
		log.Fatalf("Failed to seed directory: %v", err)
	}
	log.Printf("Seeded %d students, %d instructors and %d class types",
		len(roster.Students), len(roster.Instructors), len(roster.ClassTypes))

	if *resetBookings {
		res, err := db.Collection(ledgerRepo.BookingsCollection).DeleteMany(ctx, bson.M{})
		if err != nil {
			log.Fatalf("Failed to clear bookings: %v", err)
		}
		log.Printf("Removed %d bookings", res.DeletedCount)
	}

	if err := ledgerRepo.NewMongoLedger(db).EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create ledger indexes: %v", err)
	}
	if err := database.Disconnect(ctx); err != nil {
		log.Printf("Failed to disconnect: %v", err)
	}
}
