package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// kvDocument is the stored shape of one key/value pair. ExpiresAt is
// absent for persistent entries; when set, a TTL index reaps the
// document server-side.
type kvDocument struct {
	Key       string     `bson:"_id"`
	Value     string     `bson:"value"`
	UpdatedAt time.Time  `bson:"updated_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// MongoKVService is the KVStore over MongoDB. The mongo client is
// owned by the caller; Close here is a no-op.
type MongoKVService struct {
	collection *mongo.Collection
	logger     *zap.Logger

	// Stats
	hits   int64
	misses int64
}

// NewMongoKVService prepares the kv_entries collection. Index creation
// failures are logged and tolerated.
func NewMongoKVService(db *mongo.Database, logger *zap.Logger) (*MongoKVService, error) {
	collection := db.Collection("kv_entries")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{bson.E{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn("TTL index creation failed for kv_entries", zap.Error(err))
	}

	return &MongoKVService{
		collection: collection,
		logger:     logger,
	}, nil
}

// Get returns the value stored under key, ErrKVMiss when absent or
// expired. The Mongo TTL monitor only runs periodically, so expiry is
// also checked here.
func (m *MongoKVService) Get(ctx context.Context, key string) (string, error) {
	var doc kvDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			atomic.AddInt64(&m.misses, 1)
			return "", ErrKVMiss
		}
		return "", fmt.Errorf("mongo kv get: %w", err)
	}

	if doc.ExpiresAt != nil && time.Now().After(*doc.ExpiresAt) {
		atomic.AddInt64(&m.misses, 1)
		go m.deleteExpired(key)
		return "", ErrKVMiss
	}

	atomic.AddInt64(&m.hits, 1)
	return doc.Value, nil
}

// Set stores value under key, replacing any previous entry.
func (m *MongoKVService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	doc := kvDocument{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	if ttl > 0 {
		expires := time.Now().Add(ttl)
		doc.ExpiresAt = &expires
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		m.logger.Error("mongo kv set failed", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("mongo kv set: %w", err)
	}
	return nil
}

// Delete removes a key.
func (m *MongoKVService) Delete(ctx context.Context, key string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongo kv delete: %w", err)
	}
	return nil
}

// Clear removes every entry in the collection.
func (m *MongoKVService) Clear(ctx context.Context) error {
	result, err := m.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("mongo kv clear: %w", err)
	}
	m.logger.Info("mongo KV cleared", zap.Int64("deleted_count", result.DeletedCount))
	return nil
}

// Exists reports whether key is present and unexpired.
func (m *MongoKVService) Exists(ctx context.Context, key string) (bool, error) {
	filter := bson.M{
		"_id": key,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": time.Now()}},
		},
	}
	count, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("mongo kv exists: %w", err)
	}
	return count > 0, nil
}

// GetTTL returns the remaining lifetime of key; zero when absent or
// persistent.
func (m *MongoKVService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	var doc kvDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("mongo kv ttl: %w", err)
	}
	if doc.ExpiresAt == nil {
		return 0, nil
	}

	remaining := time.Until(*doc.ExpiresAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// GetStats reports hit/miss counters and the document count.
func (m *MongoKVService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	hits := atomic.LoadInt64(&m.hits)
	misses := atomic.LoadInt64(&m.misses)

	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	count, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo kv stats: %w", err)
	}

	return map[string]interface{}{
		"backend":     "mongo",
		"hit_rate":    hitRate,
		"total_hits":  hits,
		"total_miss":  misses,
		"total_items": count,
	}, nil
}

// Close is a no-op; the mongo client belongs to the caller.
func (m *MongoKVService) Close() error {
	return nil
}

func (m *MongoKVService) deleteExpired(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		m.logger.Warn("mongo kv expired delete failed", zap.Error(err), zap.String("key", key))
	}
}
