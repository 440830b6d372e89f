package mongodb

import (
	"context"
	"errors"

	"github.com/geocoder89/quicknotes/internal/domain/note"
	"github.com/geocoder89/quicknotes/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotesRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	prom   *observability.Prom
}

func NewNotesRepo(db *mongo.Database, prom *observability.Prom) *NotesRepo {
	return &NotesRepo{client: db.Client(), coll: db.Collection(notesCollection), prom: prom}
}

func (r *NotesRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *NotesRepo) Create(ctx context.Context, n note.Note) (note.Note, error) {
	err := run(ctx, r.prom, "notes.create", func(ctx context.Context) error {
		_, err := r.coll.InsertOne(ctx, n)
		return err
	})
	if err != nil {
		return note.Note{}, err
	}
	return n, nil
}

func (r *NotesRepo) GetByID(ctx context.Context, id string) (note.Note, error) {
	var n note.Note

	err := run(ctx, r.prom, "notes.get_by_id", func(ctx context.Context) error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return note.Note{}, note.ErrNotFound
		}
		return note.Note{}, err
	}
	return n, nil
}

func (r *NotesRepo) ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	notes := make([]note.Note, 0)

	err := run(ctx, r.prom, "notes.list_by_owner", func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

		cur, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID}, opts)
		if err != nil {
			return err
		}
		return cur.All(ctx, &notes)
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// UpdateOwned applies p only when the document still belongs to ownerID.
func (r *NotesRepo) UpdateOwned(ctx context.Context, id, ownerID string, p note.Patch) (note.Note, error) {
	set := bson.M{"updated_at": p.UpdatedAt}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Body != nil {
		set["body"] = *p.Body
	}

	var n note.Note
	err := run(ctx, r.prom, "notes.update_owned", func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "owner_id": ownerID},
			bson.M{"$set": set},
			opts,
		).Decode(&n)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return note.Note{}, note.ErrNotFound
		}
		return note.Note{}, err
	}
	return n, nil
}

func (r *NotesRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	var deleted int64

	err := run(ctx, r.prom, "notes.delete_owned", func(ctx context.Context) error {
		res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return note.ErrNotFound
	}
	return nil
}
