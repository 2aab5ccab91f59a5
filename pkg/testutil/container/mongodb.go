// Package container starts throwaway infrastructure for integration tests.
package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultMongoImage = "mongo:7"

// MongoDBContainer is a running MongoDB container with a connected client.
type MongoDBContainer struct {
	Container        *mongodb.MongoDBContainer
	Client           *mongo.Client
	ConnectionString string
}

type mongoOptions struct {
	image      string
	replicaSet string
}

type MongoDBOption func(*mongoOptions)

func WithImage(image string) MongoDBOption {
	return func(o *mongoOptions) {
		o.image = image
	}
}

// WithReplicaSet starts a single node replica set named name.
func WithReplicaSet(name string) MongoDBOption {
	return func(o *mongoOptions) {
		o.replicaSet = name
	}
}

func StartMongoDBContainer(ctx context.Context, opts ...MongoDBOption) (*MongoDBContainer, error) {
	o := &mongoOptions{image: defaultMongoImage}
	for _, opt := range opts {
		opt(o)
	}

	var customizers []testcontainers.ContainerCustomizer
	if o.replicaSet != "" {
		customizers = append(customizers, mongodb.WithReplicaSet(o.replicaSet))
	}

	ctr, err := mongodb.Run(ctx, o.image, customizers...)
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}
	m := &MongoDBContainer{Container: ctr}

	if m.ConnectionString, err = ctr.ConnectionString(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to get connection string: %w", err), m.Terminate(ctx))
	}
	if m.Client, err = mongo.Connect(options.Client().ApplyURI(m.ConnectionString)); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to mongodb: %w", err), m.Terminate(ctx))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.Client.Ping(pingCtx, nil); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping mongodb: %w", err), m.Terminate(ctx))
	}
	return m, nil
}

func (m *MongoDBContainer) Database(name string) *mongo.Database {
	return m.Client.Database(name)
}

// Terminate disconnects the client and removes the container.
func (m *MongoDBContainer) Terminate(ctx context.Context) error {
	var errs []error
	if m.Client != nil {
		if err := m.Client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect from mongodb: %w", err))
		}
	}
	if m.Container != nil {
		if err := testcontainers.TerminateContainer(m.Container); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate mongodb container: %w", err))
		}
	}
	return errors.Join(errs...)
}
