package devbackend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princinho/sahoadmin/dto"
	"github.com/princinho/sahoadmin/models"
	"github.com/princinho/sahoadmin/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoUsers struct {
	col *mongo.Collection
}

func NewMongoUsers(col *mongo.Collection) *MongoUsers {
	return &MongoUsers{col: col}
}

func (r *MongoUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUsers) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// Insert only writes when no user has the email yet.
func (r *MongoUsers) Insert(ctx context.Context, u models.User) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"email": u.Email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":          u.ID,
			"email":        u.Email,
			"passwordHash": u.PasswordHash,
			"firstName":    u.FirstName,
			"lastName":     u.LastName,
			"role":         u.Role,
			"isActive":     u.IsActive,
			"createdAt":    now,
			"updatedAt":    now,
		},
	}

	res, err := r.col.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert user: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

type MongoCategories struct {
	col *mongo.Collection
}

func NewMongoCategories(col *mongo.Collection) *MongoCategories {
	return &MongoCategories{col: col}
}

func (r *MongoCategories) List(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]models.Category, 0)
	for cursor.Next(ctx) {
		var cat models.Category
		if err := cursor.Decode(&cat); err != nil {
			return nil, err
		}
		items = append(items, cat)
	}
	return items, cursor.Err()
}

func (r *MongoCategories) Reorder(ctx context.Context, positions []dto.CategoryPosition) error {
	if err := validatePositions(positions, nil); err != nil {
		return err
	}
	ids := make([]int64, len(positions))
	for i, p := range positions {
		ids[i] = p.CategoryID
	}
	found, err := r.col.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	if found != int64(len(ids)) {
		return fmt.Errorf("%w: %d of %d ids exist", ErrUnknownCategory, found, len(ids))
	}

	writes := make([]mongo.WriteModel, len(positions))
	for i, p := range positions {
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": p.CategoryID}).
			SetUpdate(bson.M{"$set": bson.M{"sortOrder": p.NewPosition}})
	}
	if _, err := r.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	return nil
}

func (r *MongoCategories) Seed(ctx context.Context, cats []models.Category) error {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if n > 0 || len(cats) == 0 {
		return nil
	}
	docs := make([]any, len(cats))
	for i, c := range cats {
		docs[i] = c
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil && !utils.IsDuplicateKey(err) {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}
