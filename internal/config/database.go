package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB database handle
	MongoDB *mongo.Database
	// Redis client, nil when Redis is not reachable at startup
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection and required indexes
func InitMongoDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := ensureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
	return nil
}

// InitRedis initializes the Redis connection. A failed ping leaves Redis nil
// so callers can fall back to process-local state.
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisURI,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  AppConfig.RedisDialTimeout,
		ReadTimeout:  AppConfig.RedisReadTimeout,
		WriteTimeout: AppConfig.RedisWriteTimeout,
		PoolSize:     AppConfig.RedisPoolSize,
		MinIdleConns: AppConfig.RedisMinIdleConns,
	})

	client := redisclient.NewClient(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		_ = redisClient.Close()
		return
	}

	Redis = client
	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks credentials in a MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	scheme := "mongodb://"
	if strings.HasPrefix(uri, "mongodb+srv://") {
		scheme = "mongodb+srv://"
	}
	return scheme + "****:****@" + uri[at+1:]
}

// ensureIndexes creates required indexes if they don't exist
func ensureIndexes() error {
	logger := logging.Logger.With(zap.String("component", "database"))
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, spec := range requiredIndexes() {
		if err := ensureIndex(ctx, logger, spec.collection, spec.model); err != nil {
			return err
		}
	}

	logger.Info("all required indexes verified")
	return nil
}

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

func requiredIndexes() []indexSpec {
	return []indexSpec{
		{
			collection: AppConfig.LeadCollection,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("created_at_-1"),
			},
		},
		{
			collection: AppConfig.LeadCollection,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "source", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("status_1_source_1_created_at_-1"),
			},
		},
		{
			collection: AppConfig.LeadCollection,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "source", Value: 1},
					{Key: "external_id", Value: 1},
				},
				Options: options.Index().
					SetName("source_1_external_id_1").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"external_id": bson.M{"$type": "string"}}),
			},
		},
		{
			collection: AppConfig.DownloadLogCollection,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "downloaded_at", Value: -1}},
				Options: options.Index().SetName("downloaded_at_-1"),
			},
		},
	}
}

// ensureIndex creates one index unless an index with the same name exists
func ensureIndex(ctx context.Context, logger *logging.SafeLogger, collectionName string, model mongo.IndexModel) error {
	collection := MongoDB.Collection(collectionName)
	name := ""
	if model.Options != nil && model.Options.Name != nil {
		name = *model.Options.Name
	}

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		logger.Error("failed to list indexes", zap.String("collection", collectionName), zap.Error(err))
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if existing, ok := index["name"].(string); ok && existing == name {
			logger.Debug("index already exists",
				zap.String("collection", collectionName),
				zap.String("index", name))
			return nil
		}
	}

	if _, err := collection.Indexes().CreateOne(ctx, model); err != nil {
		// another instance may have created it concurrently
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		logger.Error("failed to create index",
			zap.String("collection", collectionName),
			zap.String("index", name),
			zap.Error(err))
		return err
	}

	logger.Info("created index",
		zap.String("collection", collectionName),
		zap.String("index", name))
	return nil
}
