package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/repository"
)

const (
	stockCollection   = "stock"
	historyCollection = "usage_history"
)

// tableDocument stores one equipment table as a header-first grid keyed by equipment.
type tableDocument struct {
	Equipment string     `bson:"_id"`
	Rows      [][]string `bson:"rows"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// MongoDBRepository implements repository.Backend with one document per equipment per table.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
	now    func() time.Time
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (r *MongoDBRepository) ReadStock(ctx context.Context, equipment models.Equipment) (models.StockTable, error) {
	rows, err := r.load(ctx, stockCollection, equipment)
	if err != nil {
		return models.StockTable{Equipment: equipment}, err
	}
	return repository.DecodeStock(equipment, rows)
}

func (r *MongoDBRepository) WriteStock(ctx context.Context, equipment models.Equipment, table models.StockTable) error {
	return r.replace(ctx, stockCollection, equipment, repository.EncodeStock(table))
}

func (r *MongoDBRepository) ReadHistory(ctx context.Context, equipment models.Equipment) (models.UsageHistoryTable, error) {
	rows, err := r.load(ctx, historyCollection, equipment)
	if err != nil {
		return models.UsageHistoryTable{Equipment: equipment}, err
	}
	return repository.DecodeHistory(equipment, rows)
}

func (r *MongoDBRepository) WriteHistory(ctx context.Context, equipment models.Equipment, table models.UsageHistoryTable) error {
	return r.replace(ctx, historyCollection, equipment, repository.EncodeHistory(table))
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) load(ctx context.Context, collName string, equipment models.Equipment) ([][]string, error) {
	collection := r.client.Database(r.dbName).Collection(collName)

	var doc tableDocument
	err := collection.FindOne(ctx, bson.M{"_id": string(equipment)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s/%s: %w", collName, equipment, err)
	}
	return doc.Rows, nil
}

func (r *MongoDBRepository) replace(ctx context.Context, collName string, equipment models.Equipment, rows [][]string) error {
	collection := r.client.Database(r.dbName).Collection(collName)

	doc := newTableDocument(equipment, rows, r.now())
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": doc.Equipment}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", collName, equipment, err)
	}

	r.logger.Debug("table replaced", zap.String("collection", collName), zap.String("equipment", string(equipment)))
	return nil
}

func newTableDocument(equipment models.Equipment, rows [][]string, at time.Time) tableDocument {
	return tableDocument{Equipment: string(equipment), Rows: rows, UpdatedAt: at.UTC()}
}
