package mongodb

import (
	"context"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WinnerRepository implements the repositories.WinnerRepository interface
type WinnerRepository struct {
	collection *mongo.Collection
}

// NewWinnerRepository creates a new WinnerRepository
func NewWinnerRepository(db *mongo.Database) repositories.WinnerRepository {
	return &WinnerRepository{
		collection: db.Collection("winners"),
	}
}

// Create records the resolution of a round
func (r *WinnerRepository) Create(ctx context.Context, winner *models.Winner) error {
	_, err := r.collection.InsertOne(ctx, newWinnerDocument(winner))
	return err
}

// FindAll finds winners with pagination, latest round first
func (r *WinnerRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Winner, error) {
	return r.find(ctx, bson.M{}, page, limit)
}

// FindByAddress finds the rounds an address won
func (r *WinnerRepository) FindByAddress(ctx context.Context, address common.Address, page, limit int) ([]*models.Winner, error) {
	return r.find(ctx, bson.M{"address": address.Hex()}, page, limit)
}

// Count counts all winners
func (r *WinnerRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *WinnerRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.Winner, error) {
	opts := options.Find().
		SetSkip(int64(repositories.Offset(page, limit))).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "round", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []winnerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	winners := make([]*models.Winner, 0, len(docs))
	for i := range docs {
		w, err := docs[i].model()
		if err != nil {
			return nil, err
		}
		winners = append(winners, w)
	}
	return winners, nil
}
