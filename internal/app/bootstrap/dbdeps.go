// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/circlehub/internal/docstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Store is always set and is what the rest of the app talks to. The
// Mongo fields are nil when the embedded store is in use.
type DBDeps struct {
	Store         docstore.DB
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
}
