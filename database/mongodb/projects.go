package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// A toggle loses a round only when another caller flips the same user between our two
// conditional updates.
const maxToggleAttempts = 5

type ProjectRepo struct {
	collection *mongo.Collection
}

func NewProjectRepo(collection *mongo.Collection) *ProjectRepo {
	return &ProjectRepo{collection: collection}
}

// newID returns an ObjectID in hex so ids look the same as the ones the feed has always served.
func newID() string {
	return primitive.NewObjectID().Hex()
}

func (r *ProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = newID()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now()
	}
	project.Normalize()

	_, err := r.collection.InsertOne(ctx, project)
	return err
}

func (r *ProjectRepo) FindAll(ctx context.Context, page models.Page) ([]*models.Project, error) {
	return r.find(ctx, bson.M{}, page)
}

func (r *ProjectRepo) FindByUser(ctx context.Context, userID string, page models.Page) ([]*models.Project, error) {
	return r.find(ctx, bson.M{"userId": userID}, page)
}

func (r *ProjectRepo) find(ctx context.Context, filter bson.M, page models.Page) ([]*models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if page.Offset > 0 {
		opts.SetSkip(int64(page.Offset))
	}
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	projects := []*models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	for _, p := range projects {
		p.Normalize()
	}
	return projects, nil
}

func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NewNotFound("project")
	}
	if err != nil {
		return nil, err
	}
	project.Normalize()
	return &project, nil
}

// ToggleLike runs two guarded updates. The unlike only matches while userID is in the set
// and the like only matches while it is not, so the counter moves with the set.
func (r *ProjectRepo) ToggleLike(ctx context.Context, projectID, userID string) (*models.Project, bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		var project models.Project
		err := r.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": projectID, "likedBy": userID},
			bson.M{"$pull": bson.M{"likedBy": userID}, "$inc": bson.M{"likes": -1}},
			opts,
		).Decode(&project)
		if err == nil {
			project.Normalize()
			return &project, false, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, err
		}

		err = r.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": projectID, "likedBy": bson.M{"$ne": userID}},
			bson.M{"$addToSet": bson.M{"likedBy": userID}, "$inc": bson.M{"likes": 1}},
			opts,
		).Decode(&project)
		if err == nil {
			project.Normalize()
			return &project, true, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, err
		}

		exists, err := r.exists(ctx, projectID)
		if err != nil {
			return nil, false, err
		}
		if !exists {
			return nil, false, errs.NewNotFound("project")
		}
	}
	return nil, false, fmt.Errorf("toggle like on %s: %w", projectID, errs.ErrWriteConflict)
}

func (r *ProjectRepo) AppendCommentRef(ctx context.Context, projectID, commentID string) (bool, error) {
	return appendCommentRef(ctx, r.collection, projectID, commentID)
}

// appendCommentRef reports true only when $addToSet changed the document.
func appendCommentRef(ctx context.Context, collection *mongo.Collection, projectID, commentID string) (bool, error) {
	res, err := collection.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$addToSet": bson.M{"comments": commentID}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, errs.NewNotFound("project")
	}
	return res.ModifiedCount > 0, nil
}

func (r *ProjectRepo) RepairLikeCount(ctx context.Context, projectID string) (bool, error) {
	filter := bson.M{
		"_id":   projectID,
		"$expr": bson.M{"$ne": bson.A{"$likes", bson.M{"$size": bson.M{"$ifNull": bson.A{"$likedBy", bson.A{}}}}}},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"likes": bson.M{"$size": bson.M{"$ifNull": bson.A{"$likedBy", bson.A{}}}}}}},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	exists, err := r.exists(ctx, projectID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, errs.NewNotFound("project")
	}
	return false, nil
}

func (r *ProjectRepo) exists(ctx context.Context, id string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
