package knowledge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/service/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS interview_references (
	id          TEXT PRIMARY KEY,
	profile     TEXT NOT NULL,
	position    INT  NOT NULL DEFAULT 0,
	kind        TEXT NOT NULL,
	title       TEXT NOT NULL,
	authors     TEXT[] NOT NULL DEFAULT '{}',
	author      TEXT NOT NULL DEFAULT '',
	year        INT  NOT NULL DEFAULT 0,
	venue       TEXT NOT NULL DEFAULT '',
	date        TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL DEFAULT '',
	keywords    TEXT[] NOT NULL DEFAULT '{}',
	summary     TEXT NOT NULL DEFAULT '',
	positioning TEXT NOT NULL DEFAULT '',
	highlights  TEXT[] NOT NULL DEFAULT '{}',
	talk_tracks TEXT[] NOT NULL DEFAULT '{}',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_interview_references_profile ON interview_references (profile, position);
`

// Repository reads and seeds the interview_references table for one profile.
type Repository struct {
	postgres *database.PostgresService
	db       *sql.DB
	profile  string
	logger   *zap.Logger
}

func NewRepository(postgres *database.PostgresService, profileName string, logger *zap.Logger) *Repository {
	return &Repository{
		postgres: postgres,
		db:       postgres.GetDB(),
		profile:  profileName,
		logger:   logger,
	}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create interview_references: %w", err)
	}
	return nil
}

// References returns the profile's works in seed order.
func (r *Repository) References(ctx context.Context) ([]domain.Reference, error) {
	query := `
		SELECT id, kind, title, authors, author, year, venue, date, role,
		       keywords, summary, positioning, highlights, talk_tracks
		FROM interview_references
		WHERE profile = $1
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, r.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.Reference, 0)
	for rows.Next() {
		var (
			ref  domain.Reference
			kind string
		)
		if err := rows.Scan(
			&ref.ID, &kind, &ref.Title, pq.Array(&ref.Authors), &ref.Author, &ref.Year,
			&ref.Venue, &ref.Date, &ref.Role, pq.Array(&ref.Keywords), &ref.Summary,
			&ref.Positioning, pq.Array(&ref.Highlights), pq.Array(&ref.TalkTracks),
		); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		ref.Kind = domain.ReferenceKind(kind)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}
	return refs, nil
}

// Seed replaces the profile's rows with refs in a single transaction.
func (r *Repository) Seed(ctx context.Context, refs []domain.Reference) (int, error) {
	insert := `
		INSERT INTO interview_references (
			id, profile, position, kind, title, authors, author, year, venue, date, role,
			keywords, summary, positioning, highlights, talk_tracks, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
		ON CONFLICT (id) DO UPDATE SET
			profile = EXCLUDED.profile, position = EXCLUDED.position, kind = EXCLUDED.kind,
			title = EXCLUDED.title, authors = EXCLUDED.authors, author = EXCLUDED.author,
			year = EXCLUDED.year, venue = EXCLUDED.venue, date = EXCLUDED.date, role = EXCLUDED.role,
			keywords = EXCLUDED.keywords, summary = EXCLUDED.summary,
			positioning = EXCLUDED.positioning, highlights = EXCLUDED.highlights,
			talk_tracks = EXCLUDED.talk_tracks, updated_at = now()
	`

	err := r.postgres.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM interview_references WHERE profile = $1`, r.profile); err != nil {
			return fmt.Errorf("failed to clear references: %w", err)
		}
		for i, ref := range refs {
			if _, err := tx.ExecContext(ctx, insert,
				ref.ID, r.profile, i, string(ref.Kind), ref.Title, pq.Array(nonNil(ref.Authors)),
				ref.Author, ref.Year, ref.Venue, ref.Date, ref.Role, pq.Array(nonNil(ref.Keywords)),
				ref.Summary, ref.Positioning, pq.Array(nonNil(ref.Highlights)), pq.Array(nonNil(ref.TalkTracks)),
			); err != nil {
				return fmt.Errorf("failed to insert reference %s: %w", ref.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("References seeded",
		zap.String("profile", r.profile),
		zap.Int("count", len(refs)),
	)
	return len(refs), nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
