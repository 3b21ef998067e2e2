// Copyright 2026 The picstash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mongostore persists image records in a MongoDB collection.
// Record IDs are ObjectID hex strings.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/picstash-io/picstash/pkg/image"
)

const collectionName = "images"

type record struct {
	ID        primitive.ObjectID `bson:"_id"`
	BlobKey   string             `bson:"blobKey,omitempty"`
	SourceURL string             `bson:"sourceURL,omitempty"`
	Created   time.Time          `bson:"created"`
	Modified  time.Time          `bson:"modified"`
}

func (r *record) toImage() *image.Image {
	return &image.Image{
		ID:        r.ID.Hex(),
		BlobKey:   r.BlobKey,
		SourceURL: r.SourceURL,
		Created:   r.Created,
		Modified:  r.Modified,
	}
}

// Store implements image.Store over a MongoDB collection.
type Store struct {
	coll *mongo.Collection
}

var _ image.Store = (*Store)(nil)

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &Store{coll: client.Database(database).Collection(collectionName)}, nil
}

func (s *Store) NewID() string {
	return primitive.NewObjectID().Hex()
}

func (s *Store) Put(ctx context.Context, img *image.Image) error {
	oid, err := primitive.ObjectIDFromHex(img.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"blobKey":   img.BlobKey,
			"sourceURL": img.SourceURL,
			"modified":  now,
		},
		"$setOnInsert": bson.M{"created": now},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.coll.UpdateByID(ctx, oid, update, opts); err != nil {
		return err
	}

	if img.Created.IsZero() {
		img.Created = now
	}
	img.Modified = now
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*image.Image, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, image.ErrImageNotFound
	}

	var rec record
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, image.ErrImageNotFound
		}
		return nil, err
	}
	return rec.toImage(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return image.ErrImageNotFound
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return image.ErrImageNotFound
	}
	return nil
}

// List pages through records in ObjectID order, which is also
// creation order.
func (s *Store) List(ctx context.Context, cursor string, limit int) ([]*image.Image, string, error) {
	if limit < 1 {
		return nil, "", nil
	}

	filter := bson.M{}
	if cursor != "" {
		oid, err := primitive.ObjectIDFromHex(cursor)
		if err != nil {
			return nil, "", image.ErrBadCursor
		}
		filter["_id"] = bson.M{"$gt": oid}
	}

	// Fetch one extra record to learn whether another page exists.
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit) + 1)
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, "", err
	}
	defer cur.Close(ctx)

	var recs []record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, "", err
	}

	next := ""
	if len(recs) > limit {
		recs = recs[:limit]
		next = recs[limit-1].ID.Hex()
	}

	images := make([]*image.Image, 0, len(recs))
	for i := range recs {
		images = append(images, recs[i].toImage())
	}
	return images, next, nil
}
