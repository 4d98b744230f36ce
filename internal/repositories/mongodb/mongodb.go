// Package mongodb implements the repositories on MongoDB.
package mongodb

import (
	"github.com/ArowuTest/bridgetunes-raffle/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

// New builds every repository on db
func New(db *mongo.Database) repositories.Repositories {
	return repositories.Repositories{
		State:    NewStateRepository(db),
		Winners:  NewWinnerRepository(db),
		Events:   NewEventRepository(db),
		Accounts: NewAccountRepository(db),
	}
}
