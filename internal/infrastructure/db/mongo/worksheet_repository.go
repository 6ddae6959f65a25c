package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

const (
	collectionWorksheets      = "worksheets"
	collectionFeatures        = "worksheet_features"
	collectionExecutionSheets = "execution_sheets"
)

type WorksheetRepository struct {
	worksheets *mongo.Collection
	features   *mongo.Collection
	executions *mongo.Collection
}

func NewWorksheetRepository(db *mongo.Database) *WorksheetRepository {
	return &WorksheetRepository{
		worksheets: db.Collection(collectionWorksheets),
		features:   db.Collection(collectionFeatures),
		executions: db.Collection(collectionExecutionSheets),
	}
}

func (r *WorksheetRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.worksheets.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert writes the parent worksheet record.
func (r *WorksheetRepository) Insert(ctx context.Context, ws *domain.Worksheet) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.worksheets.InsertOne(ctx, ws)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrWorksheetExists
	}
	return err
}

// InsertFeatures writes one worksheet's feature batch inside a transaction so
// a mid-batch failure leaves no partial feature set behind.
func (r *WorksheetRepository) InsertFeatures(ctx context.Context, features []domain.Feature) error {
	if len(features) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs := make([]any, len(features))
	for i := range features {
		docs[i] = features[i]
	}

	session, err := r.features.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return r.features.InsertMany(sc, docs)
	})
	return err
}

func (r *WorksheetRepository) FindByID(ctx context.Context, id string) (*domain.Worksheet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ws domain.Worksheet
	err := r.worksheets.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWorksheetNotFound
		}
		return nil, err
	}
	return &ws, nil
}

// List returns every worksheet, most recently imported first.
func (r *WorksheetRepository) List(ctx context.Context) ([]*domain.Worksheet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.worksheets.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sheets []*domain.Worksheet
	if err := cursor.All(ctx, &sheets); err != nil {
		return nil, err
	}
	return sheets, nil
}

// FindFeatures returns a worksheet's features ordered by positional index.
func (r *WorksheetRepository) FindFeatures(ctx context.Context, worksheetID string) ([]domain.Feature, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "index", Value: 1}})
	cursor, err := r.features.Find(ctx, bson.M{"worksheet_id": worksheetID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var features []domain.Feature
	if err := cursor.All(ctx, &features); err != nil {
		return nil, err
	}
	return features, nil
}

// UpdateMetadata applies the editable metadata fields plus audit stamps.
// Nil pointers in upd leave the corresponding field untouched.
func (r *WorksheetRepository) UpdateMetadata(ctx context.Context, id string, upd domain.WorksheetUpdate, updatedBy string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"updated_at": time.Now().UTC(),
		"updated_by": updatedBy,
	}
	if upd.ServiceProvider != nil {
		set["metadata.service_provider"] = *upd.ServiceProvider
	}
	if upd.IssueDate != nil {
		set["metadata.issue_date"] = *upd.IssueDate
	}
	if upd.StartingDate != nil {
		set["metadata.starting_date"] = *upd.StartingDate
	}
	if upd.FinishingDate != nil {
		set["metadata.finishing_date"] = *upd.FinishingDate
	}

	res, err := r.worksheets.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrWorksheetNotFound
	}
	return nil
}

func (r *WorksheetRepository) DeleteFeature(ctx context.Context, worksheetID string, index int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.features.DeleteOne(ctx, bson.M{"worksheet_id": worksheetID, "index": index})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrFeatureNotFound
	}
	return nil
}

// Delete removes the worksheet together with its features and any execution
// sheets referencing it.
func (r *WorksheetRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := r.worksheets.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrWorksheetNotFound
	}

	if _, err := r.features.DeleteMany(ctx, bson.M{"worksheet_id": id}); err != nil {
		return err
	}
	if _, err := r.executions.DeleteMany(ctx, bson.M{"worksheet_id": id}); err != nil {
		return err
	}
	return nil
}

// EnsureIndexes creates lookup indexes on the feature and execution sheet
// collections. The worksheet _id is the natural key and needs none.
func (r *WorksheetRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.features.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "worksheet_id", Value: 1}, {Key: "index", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = r.executions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "worksheet_id", Value: 1}}},
	})
	return err
}
