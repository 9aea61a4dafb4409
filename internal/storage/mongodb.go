package storage

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoClient *mongo.Client
var mongoDB *mongo.Database

// InitMongoDB initializes MongoDB connection
func InitMongoDB(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoClient = client
	mongoDB = client.Database(dbName)

	log.Println("✅ Connected to MongoDB successfully!")
	return nil
}

// CloseMongoDB closes MongoDB connection
func CloseMongoDB() {
	if mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
		log.Println("MongoDB connection closed")
	}
}

// Project is a read-only record from the externally owned project directory.
type Project struct {
	ID          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	ProjectCode string `bson:"project_code" json:"project_code"`
}

// ProjectDirectory queries the projects collection. The directory is owned by
// the ERP; this service never writes to it.
type ProjectDirectory struct {
	collection *mongo.Collection
	cache      *projectCache
}

// NewProjectDirectory returns a directory backed by the shared MongoDB handle.
func NewProjectDirectory() *ProjectDirectory {
	return &ProjectDirectory{
		collection: mongoDB.Collection("projects"),
		cache:      newProjectCache(cacheTTL),
	}
}

// FindByCode retrieves the project with an exact, case-sensitive code match.
// Returns (nil, nil) when no project carries that code.
func (d *ProjectDirectory) FindByCode(ctx context.Context, code string) (*Project, error) {
	if project, ok := d.cache.Get(code); ok {
		return project, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var project Project
	err := d.collection.FindOne(ctx, bson.M{"project_code": code}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query project by code: %w", err)
	}

	d.cache.Put(code, &project)
	return &project, nil
}

// FindByNameSubstring retrieves up to limit projects whose name contains the
// text, case-insensitively, in directory default order.
func (d *ProjectDirectory) FindByNameSubstring(ctx context.Context, text string, limit int64) ([]Project, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"name": bson.M{"$regex": regexp.QuoteMeta(text), "$options": "i"}}
	cursor, err := d.collection.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query projects by name: %w", err)
	}
	defer cursor.Close(ctx)

	var results []Project
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}
