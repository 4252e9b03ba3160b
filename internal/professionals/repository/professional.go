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
	"go.mongodb.org/mongo-driver/mongo/options"

	professionalserrors "clinagenda/internal/professionals/errors"
	"clinagenda/pkg/config"
	mongotx "clinagenda/pkg/db/mongo"
	"clinagenda/pkg/model"
)

const (
	CollectionName = "Professionals"
)

type mongoProfessionalRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ProfessionalRepository interface {
	Create(ctx context.Context, p *model.Professional) error
	FindByID(ctx context.Context, id string) (*model.Professional, error)
	FindByName(ctx context.Context, name string) (*model.Professional, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Professional, error)
	Update(ctx context.Context, id string, p *model.Professional) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	SetAvailability(ctx context.Context, id string, date string, window *model.AvailabilityWindow) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoProfessionalRepository(cfg *config.Config) ProfessionalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfessionalRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics, so
// inside a transaction the original context is returned with a no-op cancel.
func (r *mongoProfessionalRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoProfessionalRepository) Create(ctx context.Context, p *model.Professional) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if p.Availability == nil {
		p.Availability = map[string]*model.AvailabilityWindow{}
	}
	if p.Schedule == nil {
		p.Schedule = map[string][]model.TimeSlot{}
	}

	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create professional: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}

	return nil
}

func (r *mongoProfessionalRepository) FindByID(ctx context.Context, id string) (*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}
	filter := bson.M{"_id": objectID}

	var p model.Professional
	err = r.collection.FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", professionalserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find professional: %w", err)
	}
	return &p, nil
}

func (r *mongoProfessionalRepository) FindByName(ctx context.Context, name string) (*model.Professional, error) {
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
			return nil, fmt.Errorf("%w: %s", professionalserrors.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to find professional by name: %w", err)
	}
	return &p, nil
}

func (r *mongoProfessionalRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Professional, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query professionals: %w", err)
	}
	defer cursor.Close(ctx)

	var professionals []*model.Professional
	if err = cursor.All(ctx, &professionals); err != nil {
		return nil, fmt.Errorf("failed to decode professionals: %w", err)
	}

	return professionals, nil
}

func (r *mongoProfessionalRepository) Update(ctx context.Context, id string, p *model.Professional) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set": bson.M{
			"name": p.Name,
			"role": p.Role,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update professional: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", professionalserrors.ErrNotFound, id)
	}

	return result, nil
}

func (r *mongoProfessionalRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete professional: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", professionalserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoProfessionalRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count professionals: %w", err)
	}
	return count, nil
}

// SetAvailability writes one calendar day. A nil window stores an
// explicit null, which reads back as a day off.
func (r *mongoProfessionalRepository) SetAvailability(ctx context.Context, id string, date string, window *model.AvailabilityWindow) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", professionalserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set": bson.M{
			fmt.Sprintf("availability.%s", date): window,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set availability for [%s]: %w", date, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", professionalserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoProfessionalRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
