package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StateRepository implements the repositories.StateRepository interface
type StateRepository struct {
	collection *mongo.Collection
}

// NewStateRepository creates a new StateRepository
func NewStateRepository(db *mongo.Database) repositories.StateRepository {
	return &StateRepository{
		collection: db.Collection("lottery_state"),
	}
}

// Load finds the snapshot of a lottery by its address
func (r *StateRepository) Load(ctx context.Context, lottery common.Address) (*models.LotteryState, error) {
	var doc stateDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": lottery.Hex()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lottery state %s: %w", lottery.Hex(), err)
	}
	return doc.model()
}

// Save replaces the snapshot, creating it on first save
func (r *StateRepository) Save(ctx context.Context, state *models.LotteryState) error {
	doc := newStateDocument(state)
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.Address}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save lottery state %s: %w", doc.Address, err)
	}
	return nil
}
