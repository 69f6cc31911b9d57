// Package store archives compiled programs in MongoDB so deployed bidding
// rules can be traced back to the exact tree that produced them.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/errors"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/treeio"
)

// Record is one archived compilation.
type Record struct {
	ID        string        `bson:"_id" json:"id"`
	GraphHash string        `bson:"graph_hash" json:"graph_hash"`
	Graph     *treeio.Graph `bson:"graph" json:"graph"`
	Program   string        `bson:"program" json:"program"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}

// Archive stores records in one MongoDB collection.
type Archive struct {
	client *mongo.Client
	col    *mongo.Collection
}

// Connect opens a client for uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database, collection string) (*Archive, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connecting to archive")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "archive is unreachable")
	}
	return &Archive{
		client: client,
		col:    client.Database(database).Collection(collection),
	}, nil
}

// Save archives a compilation and returns the stored record.
func (a *Archive) Save(ctx context.Context, graph *treeio.Graph, graphHash, program string) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		GraphHash: graphHash,
		Graph:     graph,
		Program:   program,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := a.col.InsertOne(ctx, rec); err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInternal, err, "archiving compilation")
	}
	return rec, nil
}

// Latest returns the most recent record for a graph hash.
func (a *Archive) Latest(ctx context.Context, graphHash string) (Record, error) {
	var rec Record
	err := a.col.FindOne(ctx,
		bson.D{{Key: "graph_hash", Value: graphHash}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return Record{}, errors.New(errors.ErrCodeNotFound, "no archived compilation for graph hash %s", graphHash)
	}
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInternal, err, "reading archive")
	}
	return rec, nil
}

// List returns the most recent records, newest first.
func (a *Archive) List(ctx context.Context, limit int64) ([]Record, error) {
	cur, err := a.col.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "listing archive")
	}
	defer cur.Close(ctx)

	var recs []Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decoding archive records")
	}
	return recs, nil
}

// Close disconnects the underlying client.
func (a *Archive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
