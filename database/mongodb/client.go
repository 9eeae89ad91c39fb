// Package mongodb implements the database stores on MongoDB (DB_TYPE=mongo).
package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	CollectionProjects = "projects"
	CollectionComments = "comments"
	CollectionMessages = "messages"
	CollectionUsers    = "users"
)

const defaultDBName = "campus"

// MongoDB wraps the client and the selected database
type MongoDB struct {
	client       *mongo.Client
	database     *mongo.Database
	dbName       string
	transactions bool
	// recordWarning counts consistency warnings by kind. Nil records nothing.
	recordWarning func(kind string)
}

type Option func(*MongoDB)

// WithWarningRecorder counts the consistency warnings the stores raise, for example
// Metrics.RecordConsistencyWarning.
func WithWarningRecorder(record func(kind string)) Option {
	return func(m *MongoDB) {
		m.recordWarning = record
	}
}

// Connect opens a pooled connection and checks that the primary answers.
func Connect(ctx context.Context, uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	m := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}
	m.transactions = m.supportsTransactions(ctx)

	log.Info().
		Str("database", dbName).
		Bool("transactions", m.transactions).
		Msg("Connected to MongoDB")

	return m, nil
}

// extractDBName reads the database from the URI path, falling back to defaultDBName.
// mongodb://localhost:27017/campus?authSource=admin -> campus
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDBName
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultDBName
}

// supportsTransactions asks the server whether it is a replica set member or a mongos
// router. Standalone servers reject multi-document transactions.
func (m *MongoDB) supportsTransactions(ctx context.Context) bool {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	err := m.database.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		log.Warn().Err(err).Msg("hello command failed, assuming standalone server")
		return false
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid"
}

// Initialize creates the indexes every query in this package relies on.
func (m *MongoDB) Initialize(ctx context.Context) error {
	log.Info().Msg("Initializing MongoDB indexes")

	if err := m.createIndexes(ctx, CollectionProjects, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("create projects indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionComments, []mongo.IndexModel{
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("create comments indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionMessages, []mongo.IndexModel{
		{Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "recipientId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create messages indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionUsers, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	return nil
}

func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	_, err := m.database.Collection(collectionName).Indexes().CreateMany(ctx, indexes)
	return err
}

func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// SupportsTransactions reports what the server answered at connect time.
func (m *MongoDB) SupportsTransactions() bool {
	return m.transactions
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close(ctx context.Context) error {
	log.Info().Msg("Closing MongoDB connection")
	return m.client.Disconnect(ctx)
}

// WithTransaction runs fn inside a multi-document transaction.
func (m *MongoDB) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// Database wires the four stores onto m.
func (m *MongoDB) Database() database.Database {
	projects := NewProjectRepo(m.Collection(CollectionProjects))
	return database.Compose(
		"mongo",
		projects,
		NewCommentRepo(m, projects),
		NewMessageRepo(m.Collection(CollectionMessages)),
		NewUserRepo(m.Collection(CollectionUsers)),
		m.Close,
	)
}

// New connects, builds the indexes and returns the composed Database.
func New(ctx context.Context, uri string, opts ...Option) (database.Database, error) {
	m, err := Connect(ctx, uri)
	if err != nil {
		return database.Database{}, err
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.Initialize(ctx); err != nil {
		_ = m.Close(context.Background())
		return database.Database{}, err
	}
	return m.Database(), nil
}
