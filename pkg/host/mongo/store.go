// Package mongo stores host tag trees as MongoDB documents with optimistic locking.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sokol111/tagdata/pkg/host"
	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/Sokol111/tagdata/pkg/tag/tagbson"
	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

type document struct {
	ID        string    `bson:"_id"`
	Root      bson.D    `bson:"root"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store is a host.Store backed by one collection.
type Store struct {
	coll *mongodriver.Collection
	conf Config
	log  *zap.Logger
	now  func() time.Time
}

var _ host.Store = (*Store)(nil)

// NewStore uses coll with the timeouts and retry settings of conf.
func NewStore(coll *mongodriver.Collection, conf Config, log *zap.Logger) *Store {
	applyDefaults(&conf)
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{coll: coll, conf: conf, log: log, now: time.Now}
}

func (s *Store) Load(ctx context.Context, id string) (host.Snapshot, bool, error) {
	var doc document
	err := s.retry(ctx, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	})
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return host.Snapshot{}, false, nil
	}
	if err != nil {
		return host.Snapshot{}, false, fmt.Errorf("failed to load tree %q: %w", id, err)
	}

	root, err := tagbson.FromDocument(doc.Root)
	if err != nil {
		return host.Snapshot{}, false, fmt.Errorf("failed to decode tree %q: %w", id, err)
	}
	return host.Snapshot{Root: root, Version: doc.Version}, true, nil
}

// Save inserts the first version of a tree or replaces the stored one when
// its version still equals snap.Version.
func (s *Store) Save(ctx context.Context, id string, snap host.Snapshot) (int64, error) {
	if snap.Root == nil {
		snap.Root = tag.NewCompound()
	}
	root, err := tagbson.ToDocument(snap.Root)
	if err != nil {
		return 0, fmt.Errorf("failed to encode tree %q: %w", id, err)
	}

	next := snap.Version + 1
	doc := document{ID: id, Root: root, Version: next, UpdatedAt: s.now().UTC()}

	if snap.Version == 0 {
		err = s.retry(ctx, func(ctx context.Context) error {
			_, err := s.coll.InsertOne(ctx, doc)
			return err
		})
		if mongodriver.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %q already exists", host.ErrVersionConflict, id)
		}
	} else {
		var res *mongodriver.UpdateResult
		err = s.retry(ctx, func(ctx context.Context) error {
			var err error
			res, err = s.coll.ReplaceOne(ctx,
				bson.D{
					{Key: "_id", Value: id},
					{Key: "version", Value: snap.Version},
				},
				doc,
			)
			return err
		})
		if err == nil && res.MatchedCount == 0 {
			return 0, fmt.Errorf("%w: %q is no longer at version %d", host.ErrVersionConflict, id, snap.Version)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to save tree %q: %w", id, err)
	}

	s.log.Debug("stored tree", zap.String("id", id), zap.Int64("version", next))
	return next, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.retry(ctx, func(ctx context.Context) error {
		_, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete tree %q: %w", id, err)
	}
	return nil
}

// retry runs op with the query timeout, retrying network errors and
// timeouts with exponential backoff.
func (s *Store) retry(ctx context.Context, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.conf.RetryDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(b, s.conf.MaxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		opCtx, cancel := context.WithTimeout(ctx, s.conf.QueryTimeout)
		defer cancel()

		err := op(opCtx)
		if err == nil || !transient(err) {
			return backoff.Permanent(err)
		}
		s.log.Debug("retrying mongo operation", zap.Int("attempt", attempt), zap.Error(err))
		return err
	}, policy)
}

func transient(err error) bool {
	return mongodriver.IsNetworkError(err) || mongodriver.IsTimeout(err)
}
