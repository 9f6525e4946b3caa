package workspace

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crewsync/crewsync/internal/engine/event"
	"github.com/crewsync/crewsync/internal/engine/model/workspace"
	"github.com/crewsync/crewsync/pkg/database"
)

const collectionName = "workspaces"

// ErrNotFound is returned when a workspace id does not resolve to a document.
var ErrNotFound = errors.New("workspace not found")

type IWorkspaceRepository interface {
	// CreateWorkspace inserts a new workspace with the owner seeded into
	// users and permissions as an admin.
	CreateWorkspace(ctx context.Context, w *workspace.Workspace, ownerId, ownerName string) error
	GetWorkspaceById(ctx context.Context, id string) (*workspace.Workspace, error)
	// FindByIds resolves the given ids in a single read. Ids that do not
	// exist are simply absent from the result; callers diff against the
	// requested set.
	FindByIds(ctx context.Context, ids []string) ([]*workspace.Workspace, error)
	UpdateMembership(ctx context.Context, id string, patch workspace.MembershipPatch) error
	EnsureIndexes(ctx context.Context) error
}

type WorkspaceRepo struct {
	coll *mongo.Collection
}

func NewWorkspaceRepo(mc *database.MongoClient) IWorkspaceRepository {
	return &WorkspaceRepo{coll: mc.GetCollection(collectionName)}
}

func (r *WorkspaceRepo) CreateWorkspace(ctx context.Context, w *workspace.Workspace, ownerId, ownerName string) error {
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	w.Users = []workspace.UserEntry{{ID: ownerId, Role: event.RoleAdmin}}
	w.Admins = []workspace.AdminEntry{{ID: ownerId, Name: ownerName}}
	w.Permissions = []workspace.PermissionEntry{{ID: ownerId, Role: event.RoleAdmin}}
	_, err := r.coll.InsertOne(ctx, w)
	return errors.Wrap(err, "insert workspace")
}

func (r *WorkspaceRepo) GetWorkspaceById(ctx context.Context, id string) (*workspace.Workspace, error) {
	var w workspace.Workspace
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find workspace")
	}
	return &w, nil
}

func (r *WorkspaceRepo) FindByIds(ctx context.Context, ids []string) ([]*workspace.Workspace, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find workspaces")
	}
	defer cur.Close(ctx)

	var out []*workspace.Workspace
	for cur.Next(ctx) {
		var w workspace.Workspace
		if err := cur.Decode(&w); err != nil {
			return nil, errors.Wrap(err, "decode workspace")
		}
		out = append(out, &w)
	}
	return out, errors.Wrap(cur.Err(), "iterate workspaces")
}

func (r *WorkspaceRepo) UpdateMembership(ctx context.Context, id string, patch workspace.MembershipPatch) error {
	update := bson.M{"$set": bson.M{
		"users":       patch.Users,
		"admins":      patch.Admins,
		"permissions": patch.Permissions,
		"updated_at":  time.Now().UTC(),
	}}
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return errors.Wrap(err, "update workspace membership")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WorkspaceRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetName("idx_team_id"),
		},
		{
			Keys:    bson.D{{Key: "users.id", Value: 1}},
			Options: options.Index().SetName("idx_users_id"),
		},
	})
	return errors.Wrap(err, "ensure workspace indexes")
}
