// Package photo keeps listing photos in a MongoDB GridFS bucket.
package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/srssieam/DreamDwell-server/apperr"
)

// BucketName is the GridFS bucket holding listing photos.
const BucketName = "listingPhotos"

// ErrFileNotFound signals an unknown or malformed file id.
var ErrFileNotFound = fmt.Errorf("photo: %w: file not found", apperr.ErrNotFound)

// Connect opens and pings a MongoDB client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("photo: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("photo: ping: %w", err)
	}
	return client, nil
}

// GridFSStore implements property.PhotoStore.
type GridFSStore struct {
	db *mongo.Database
}

func NewGridFSStore(client *mongo.Client, dbName string) *GridFSStore {
	return &GridFSStore{db: client.Database(dbName)}
}

// bucket is opened per call because GridFS deadlines are bucket state.
func (s *GridFSStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(BucketName))
	if err != nil {
		return nil, apperr.Store("photo: open bucket", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(deadline); err != nil {
			return nil, apperr.Store("photo: set deadline", err)
		}
		if err := b.SetWriteDeadline(deadline); err != nil {
			return nil, apperr.Store("photo: set deadline", err)
		}
	}
	return b, nil
}

func (s *GridFSStore) Put(ctx context.Context, filename string, r io.Reader) (string, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}
	id, err := b.UploadFromStream(filename, r)
	if err != nil {
		return "", apperr.Store("photo: upload", err)
	}
	return id.Hex(), nil
}

func (s *GridFSStore) Stream(ctx context.Context, fileID string, w io.Writer) error {
	id, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return ErrFileNotFound
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if _, err := b.DownloadToStream(id, w); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrFileNotFound
		}
		return apperr.Store("photo: download", err)
	}
	return nil
}

func (s *GridFSStore) Delete(ctx context.Context, fileID string) error {
	id, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return ErrFileNotFound
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if err := b.DeleteContext(ctx, id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrFileNotFound
		}
		return apperr.Store("photo: delete", err)
	}
	return nil
}
