package submit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

// Inserter is the subset of *mongo.Collection used by Mongo.
type Inserter interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

// Mongo stores snapshots as documents.
type Mongo struct {
	coll Inserter
	form string
	now  func() time.Time
}

// NewMongo returns an action inserting snapshots tagged with formName.
func NewMongo(coll Inserter, formName string) *Mongo {
	return &Mongo{coll: coll, form: formName, now: time.Now}
}

// Submit implements form.Action. The payload is the document id.
func (m *Mongo) Submit(ctx context.Context, snapshot map[string]any) (any, error) {
	id := uuid.NewString()
	doc := bson.M{
		"_id":        id,
		"form":       m.form,
		"values":     snapshot,
		"created_at": m.now().UTC(),
	}

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err):
			return nil, &form.SubmissionError{Kind: KindConflict, Message: "this submission already exists", Err: err}
		case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
			return nil, &validator.TransportError{Op: "submit.mongo", Err: err}
		}
		return nil, &form.SubmissionError{Message: "failed to store submission", Err: err}
	}
	return id, nil
}
