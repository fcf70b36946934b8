package remote

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoClient implements Client over a MongoDB database. Document ids are the
// string ids used everywhere else, stored as _id.
type mongoClient struct {
	db *mongo.Database
}

// NewMongoClient creates a Client backed by the given MongoDB database.
func NewMongoClient(database *mongo.Database) Client {
	return &mongoClient{db: database}
}

func (c *mongoClient) Create(ctx context.Context, collection, id string, doc any) error {
	// Ids are assigned by the caller, so a duplicate key here means the same
	// logical document was already synced; replace it rather than failing.
	opts := options.Replace().SetUpsert(true)
	_, err := c.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (c *mongoClient) Read(ctx context.Context, collection, id string, out any) error {
	err := c.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}
	return nil
}

func (c *mongoClient) List(ctx context.Context, collection, orderBy string, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: orderBy, Value: -1}})
	cursor, err := c.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s documents: %w", collection, err)
	}
	return nil
}

func (c *mongoClient) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	update := bson.M{"$set": bson.M(fields)}
	result, err := c.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *mongoClient) Delete(ctx context.Context, collection, id string) error {
	if _, err := c.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}
