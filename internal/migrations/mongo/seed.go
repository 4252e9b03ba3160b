package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"clinagenda/pkg/model"
)

// RunSeed inserts a small demo roster when the Professionals collection
// is empty. Safe to run repeatedly.
func RunSeed(ctx context.Context, client *mongo.Client, dbName string) error {
	coll := client.Database(dbName).Collection("Professionals")

	count, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed counting Professionals: %w", err)
	}
	if count > 0 {
		fmt.Printf("ℹ️ Professionals already has %d documents — skipping seed\n", count)
		return nil
	}

	fmt.Println("🌱 Seeding demo professionals")

	standardWindow := &model.AvailabilityWindow{
		Start: "09:00",
		End:   "18:00",
		LunchBreak: &model.LunchBreak{
			Start: "12:00",
			End:   "13:00",
		},
	}
	morningWindow := &model.AvailabilityWindow{
		Start: "08:00",
		End:   "13:00",
	}

	professionals := []any{
		model.Professional{
			Name: "Dr. Alice Chen",
			Role: "psychology",
			Availability: map[string]*model.AvailabilityWindow{
				"2025-11-17": standardWindow,
				"2025-11-18": standardWindow,
				"2025-11-19": nil, // day off
				"2025-11-20": standardWindow,
				"2025-11-21": standardWindow,
			},
			Schedule: map[string][]model.TimeSlot{
				"2025-11-20": {
					{Time: "10:00", Patient: "patient-demo-1"},
					{Time: "15:00", Patient: "patient-demo-2"},
				},
			},
			CreatedAt: time.Now(),
		},
		model.Professional{
			Name: "Dr. Bruno Silva",
			Role: "neuropsychology",
			Availability: map[string]*model.AvailabilityWindow{
				"2025-11-18": morningWindow,
				"2025-11-20": morningWindow,
				"2025-11-21": morningWindow,
			},
			Schedule:  map[string][]model.TimeSlot{},
			CreatedAt: time.Now(),
		},
	}

	result, err := coll.InsertMany(ctx, professionals)
	if err != nil {
		return fmt.Errorf("failed seeding Professionals: %w", err)
	}

	fmt.Printf("✅ Seeded %d professionals\n", len(result.InsertedIDs))
	return nil
}
