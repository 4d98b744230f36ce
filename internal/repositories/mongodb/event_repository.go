package mongodb

import (
	"context"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) repositories.EventRepository {
	return &EventRepository{
		collection: db.Collection("events"),
	}
}

// CreateMany appends events to the audit log in order
func (r *EventRepository) CreateMany(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(events))
	for i := range events {
		docs = append(docs, newEventDocument(&events[i]))
	}
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

func (r *EventRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Event, error) {
	return r.find(ctx, bson.M{}, page, limit)
}

func (r *EventRepository) FindByType(ctx context.Context, eventType models.EventType, page, limit int) ([]*models.Event, error) {
	return r.find(ctx, bson.M{"type": string(eventType)}, page, limit)
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.Event, error) {
	// $natural follows insertion order, createdAt alone ties within one commit
	opts := options.Find().
		SetSkip(int64(repositories.Offset(page, limit))).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "$natural", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	events := make([]*models.Event, 0, len(docs))
	for i := range docs {
		ev, err := docs[i].model()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
