package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
)

const dateKeyLayout = "2006-01-02"

// Repository defines the interface for report storage.
type Repository interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// reportDocument keys an archived report by its calendar day so reruns replace it.
type reportDocument struct {
	ID                 string `bson:"_id"`
	models.DailyReport `bson:",inline"`
}

// ReportArchive implements Repository on a MongoDB collection.
type ReportArchive struct {
	client   *mongo.Client
	dbName   string
	collName string
	logger   *zap.Logger
}

// NewReportArchive connects to MongoDB and verifies the connection.
func NewReportArchive(ctx context.Context, uri, dbName string, logger *zap.Logger) (*ReportArchive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().
		ApplyURI(uri).
		SetRegistry(NewRegistry()).
		SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &ReportArchive{
		client:   client,
		dbName:   dbName,
		collName: "daily_reports",
		logger:   logger,
	}, nil
}

// SaveDailyReport upserts the report for its day.
func (r *ReportArchive) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	doc := reportDocument{ID: DocumentID(report), DailyReport: report}
	collection := r.client.Database(r.dbName).Collection(r.collName)

	_, err := collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save daily report %s: %w", doc.ID, err)
	}

	r.logger.Info("daily report archived", zap.String("date", doc.ID))
	return nil
}

// Close closes the MongoDB connection.
func (r *ReportArchive) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// DocumentID is the archive key of a report: its calendar day.
func DocumentID(report models.DailyReport) string {
	return report.Date.Format(dateKeyLayout)
}
