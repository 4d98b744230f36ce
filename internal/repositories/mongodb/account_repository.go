package mongodb

import (
	"context"
	"errors"
	"strings"

	"github.com/ArowuTest/bridgetunes-raffle/internal/models"
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Ensure accountRepository implements repositories.AccountRepository
var _ repositories.AccountRepository = (*accountRepository)(nil)

type accountRepository struct {
	collection *mongo.Collection
}

// NewAccountRepository creates a new repository for login accounts
func NewAccountRepository(db *mongo.Database) repositories.AccountRepository {
	return &accountRepository{
		collection: db.Collection("accounts"),
	}
}

// EnsureIndexes makes addresses unique across accounts
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("accounts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "address", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Create inserts a new account
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	doc := accountDocument{
		ID:        strings.ToLower(account.Username),
		Username:  account.Username,
		Password:  account.Password,
		Address:   account.Address.Hex(),
		CreatedAt: account.CreatedAt,
	}
	if n, err := r.collection.CountDocuments(ctx, bson.M{"address": doc.Address}); err != nil {
		return err
	} else if n > 0 {
		return repositories.ErrDuplicate
	}
	_, err := r.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return repositories.ErrDuplicate
	}
	return err
}

// FindByUsername finds an account by username, case insensitive
func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": strings.ToLower(username)})
}

// FindByAddress finds the account playing with address
func (r *accountRepository) FindByAddress(ctx context.Context, address common.Address) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"address": address.Hex()})
}

func (r *accountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var doc accountDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &models.Account{
		Username:  doc.Username,
		Password:  doc.Password,
		Address:   common.HexToAddress(doc.Address),
		CreatedAt: doc.CreatedAt,
	}, nil
}
