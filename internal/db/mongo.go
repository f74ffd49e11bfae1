package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
	"github.com/wuwenbin0122/guild-recruit/internal/utils"
)

// Mongo archives the character profile captured when an application was
// submitted, raw upstream payload included.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
	Profiles *mongo.Collection
}

type profileDocument struct {
	ApplicationID int64                   `bson:"_id"`
	Profile       models.CharacterProfile `bson:"profile"`
	CapturedAt    time.Time               `bson:"captured_at"`
}

func NewMongo(ctx context.Context, cfg utils.MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: uri is required")
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	db := client.Database(cfg.Database)
	store := &Mongo{
		Client:   client,
		Database: db,
		Profiles: db.Collection("character_profiles"),
	}

	return store, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.Client.Disconnect(ctx)
}

func (m *Mongo) EnsureCollections(ctx context.Context) error {
	if m == nil || m.Database == nil {
		return fmt.Errorf("mongo: database not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.Profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "profile.realm", Value: 1}, {Key: "profile.name", Value: 1}, {Key: "captured_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure profile index: %w", err)
	}

	return nil
}

// SaveProfile stores or replaces the snapshot for an application.
func (m *Mongo) SaveProfile(ctx context.Context, applicationID int64, profile models.CharacterProfile) error {
	doc := profileDocument{
		ApplicationID: applicationID,
		Profile:       profile,
		CapturedAt:    time.Now().UTC(),
	}

	_, err := m.Profiles.ReplaceOne(ctx, bson.M{"_id": applicationID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: save profile: %w", err)
	}

	return nil
}

func (m *Mongo) FindProfile(ctx context.Context, applicationID int64) (*models.CharacterProfile, error) {
	var doc profileDocument
	if err := m.Profiles.FindOne(ctx, bson.M{"_id": applicationID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find profile: %w", err)
	}

	return &doc.Profile, nil
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return 10 * time.Second
}
