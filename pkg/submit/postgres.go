package submit

import (
	"context"
	"embed"
	"errors"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/pg"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the form_submissions table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, cfg, migrations, "migrations", log)
}

// Execer is the subset of a pgx pool used by Postgres.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertSubmission = `INSERT INTO form_submissions (id, form, payload) VALUES ($1, $2, $3)`

// Postgres stores snapshots in the form_submissions table.
type Postgres struct {
	db   Execer
	form string
}

// NewPostgres returns an action inserting snapshots tagged with formName.
func NewPostgres(db Execer, formName string) *Postgres {
	return &Postgres{db: db, form: formName}
}

// Submit implements form.Action. The payload is the new row id.
func (p *Postgres) Submit(ctx context.Context, snapshot map[string]any) (any, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}

	id := uuid.New()
	if _, err := p.db.Exec(ctx, insertSubmission, id, p.form, payload); err != nil {
		switch {
		case pg.IsDuplicateKeyError(err):
			return nil, &form.SubmissionError{Kind: KindConflict, Message: "this submission already exists", Err: err}
		case pg.IsConnectionError(err), errors.Is(err, context.DeadlineExceeded):
			return nil, &validator.TransportError{Op: "submit.postgres", Err: err}
		}
		return nil, &form.SubmissionError{Message: "failed to store submission", Err: err}
	}
	return id.String(), nil
}
