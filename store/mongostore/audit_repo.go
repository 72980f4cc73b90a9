package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-session-audit/audit"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/internal/utils"
	"github.com/jrsteele09/go-session-audit/users"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	_ audit.Repo         = (*AuditRepo)(nil)
	_ audit.JoinedLister = (*AuditRepo)(nil)
)

type AuditRepo struct {
	coll *mongo.Collection
}

type entryDoc struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	SubjectID  string        `bson:"userId"`
	Role       string        `bson:"role"`
	LoginTime  time.Time     `bson:"loginTime"`
	LogoutTime *time.Time    `bson:"logoutTime"` // stored as null while open
	Token      string        `bson:"token"`
	IPAddress  string        `bson:"ipAddress"`
}

func (d entryDoc) toEntry() *audit.Entry {
	return &audit.Entry{
		ID:         d.ID.Hex(),
		SubjectID:  d.SubjectID,
		Role:       users.RoleType(d.Role),
		LoginTime:  d.LoginTime.UTC(),
		LogoutTime: utils.UTCPtr(d.LogoutTime),
		Token:      d.Token,
		IPAddress:  d.IPAddress,
	}
}

type joinedDoc struct {
	Entry entryDoc `bson:",inline"`
	User  *struct {
		FullName string `bson:"fullName"`
		Role     string `bson:"role"`
	} `bson:"user,omitempty"`
}

func (d joinedDoc) toView() *audit.EntryView {
	v := &audit.EntryView{Entry: *d.Entry.toEntry()}
	if d.User != nil {
		v.FullName = utils.NonEmptyPtr(d.User.FullName)
		v.Role = utils.Ptr(users.RoleType(d.User.Role))
	}
	return v
}

var entrySort = bson.D{{Key: "loginTime", Value: -1}, {Key: "_id", Value: -1}}

func (ar *AuditRepo) Insert(ctx context.Context, e *audit.Entry) error {
	id := bson.NewObjectID()
	e.LoginTime = e.LoginTime.UTC().Truncate(time.Millisecond)

	_, err := ar.coll.InsertOne(ctx, entryDoc{
		ID:         id,
		SubjectID:  e.SubjectID,
		Role:       string(e.Role),
		LoginTime:  e.LoginTime,
		LogoutTime: e.LogoutTime,
		Token:      e.Token,
		IPAddress:  e.IPAddress,
	})
	if err != nil {
		return err
	}
	e.ID = id.Hex()
	return nil
}

// CloseLatestOpen relies on FindOneAndUpdate being atomic on a single document.
func (ar *AuditRepo) CloseLatestOpen(ctx context.Context, subjectID, token string, at time.Time) (*audit.Entry, error) {
	filter := bson.D{
		{Key: "userId", Value: subjectID},
		{Key: "token", Value: token},
		{Key: "logoutTime", Value: nil},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "logoutTime", Value: at.UTC().Truncate(time.Millisecond)}}}}
	opts := options.FindOneAndUpdate().
		SetSort(entrySort).
		SetReturnDocument(options.After)

	var doc entryDoc
	err := ar.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toEntry(), nil
}

func (ar *AuditRepo) List(ctx context.Context, offset, limit int) ([]*audit.Entry, error) {
	if offset < 0 || limit <= 0 {
		return []*audit.Entry{}, nil
	}
	opts := options.Find().
		SetSort(entrySort).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := ar.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]*audit.Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.toEntry())
	}
	return entries, nil
}

// ListJoined pages first and then looks up identities, so the join only touches one page.
func (ar *AuditRepo) ListJoined(ctx context.Context, offset, limit int) ([]*audit.EntryView, error) {
	if offset < 0 || limit <= 0 {
		return []*audit.EntryView{}, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: entrySort}},
		{{Key: "$skip", Value: int64(offset)}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "userId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cur, err := ar.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []joinedDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	views := make([]*audit.EntryView, 0, len(docs))
	for _, d := range docs {
		views = append(views, d.toView())
	}
	return views, nil
}

// Count uses collection metadata; it can lag behind concurrent writes.
func (ar *AuditRepo) Count(ctx context.Context) (int64, error) {
	return ar.coll.EstimatedDocumentCount(ctx)
}

func (ar *AuditRepo) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}
	res, err := ar.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
