package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "clinagenda/internal/booking/errors"
	"clinagenda/pkg/config"
	mongotx "clinagenda/pkg/db/mongo"
	"clinagenda/pkg/model"
)

const (
	CollectionName = "Professionals"
)

// ProfessionalStore is the booking-side view of the professionals
// collection: read the calendar, replace one day of the ledger.
type ProfessionalStore interface {
	FindByID(ctx context.Context, id string) (*model.Professional, error)
	FindByName(ctx context.Context, name string) (*model.Professional, error)
	ReplaceDaySchedule(ctx context.Context, id string, date string, slots []model.TimeSlot) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoProfessionalStore struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoProfessionalStore(cfg *config.Config) ProfessionalStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfessionalStore{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoProfessionalStore) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoProfessionalStore) FindByID(ctx context.Context, id string) (*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var p model.Professional
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingerrors.ErrProfessionalNotFound, id)
		}
		return nil, fmt.Errorf("failed to find professional: %w", err)
	}
	return &p, nil
}

func (r *mongoProfessionalStore) FindByName(ctx context.Context, name string) (*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"name": primitive.Regex{
		Pattern: fmt.Sprintf("^%s$", regexp.QuoteMeta(name)),
		Options: "i",
	}}

	var p model.Professional
	err := r.collection.FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingerrors.ErrProfessionalNotFound, name)
		}
		return nil, fmt.Errorf("failed to find professional by name: %w", err)
	}
	return &p, nil
}

// ReplaceDaySchedule swaps the full ledger for one date. Callers mutate
// the day in memory inside a transaction, then write it back whole.
func (r *mongoProfessionalStore) ReplaceDaySchedule(ctx context.Context, id string, date string, slots []model.TimeSlot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			fmt.Sprintf("schedule.%s", date): slots,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to replace schedule for [%s]: %w", date, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", bookingerrors.ErrProfessionalNotFound, id)
	}

	return nil
}

func (r *mongoProfessionalStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
