package knowledge

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/util"
	"github.com/kapu/interview-teleprompter-go/pkg/errors"
)

// Source yields every citable work known to a backend.
type Source interface {
	References(ctx context.Context) ([]domain.Reference, error)
}

// StaticSource serves the references embedded in a profile.
type StaticSource struct {
	refs []domain.Reference
}

func NewStaticSource(p *profile.Profile) *StaticSource {
	refs := make([]domain.Reference, len(p.References))
	copy(refs, p.References)
	return &StaticSource{refs: refs}
}

func (s *StaticSource) References(context.Context) ([]domain.Reference, error) {
	return s.refs, nil
}

// Catalog answers reference and personal-work lookups. When the primary source
// fails the fallback, usually the embedded profile data, is used instead.
type Catalog struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

func NewCatalog(primary, fallback Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	return &Catalog{primary: primary, fallback: fallback, logger: logger}
}

func (c *Catalog) all(ctx context.Context) ([]domain.Reference, error) {
	if c.primary == nil {
		return nil, nil
	}
	refs, err := c.primary.References(ctx)
	if c.fallback == nil || (err == nil && len(refs) > 0) {
		return refs, err
	}
	if err != nil {
		c.logger.Warn("Reference source failed, using fallback", zap.Error(err))
	} else {
		// An unseeded table still serves the embedded references.
		c.logger.Debug("Reference source empty, using fallback")
	}
	return c.fallback.References(ctx)
}

func (c *Catalog) byKind(ctx context.Context, kind domain.ReferenceKind) ([]domain.Reference, error) {
	refs, err := c.all(ctx)
	if err != nil {
		return nil, errors.NewServiceError("failed to load references", "knowledge", "list", err)
	}
	out := make([]domain.Reference, 0, len(refs))
	for _, r := range refs {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

// Papers lists papers matching every whitespace token of query. An empty query
// matches everything.
func (c *Catalog) Papers(ctx context.Context, query string) ([]domain.PaperSummary, error) {
	refs, err := c.byKind(ctx, domain.ReferenceKindPaper)
	if err != nil {
		return nil, err
	}
	tokens := strings.Fields(strings.ToLower(query))
	out := make([]domain.PaperSummary, 0, len(refs))
	for i := range refs {
		if util.ContainsAll(paperBlob(&refs[i]), tokens) {
			out = append(out, refs[i].PaperSummary())
		}
	}
	return out, nil
}

func (c *Catalog) PersonalWork(ctx context.Context, query string) ([]domain.WorkSummary, error) {
	refs, err := c.byKind(ctx, domain.ReferenceKindPersonal)
	if err != nil {
		return nil, err
	}
	tokens := strings.Fields(strings.ToLower(query))
	out := make([]domain.WorkSummary, 0, len(refs))
	for i := range refs {
		if util.ContainsAll(workBlob(&refs[i]), tokens) {
			out = append(out, refs[i].WorkSummary())
		}
	}
	return out, nil
}

func (c *Catalog) Paper(ctx context.Context, id string) (*domain.Reference, error) {
	return c.find(ctx, domain.ReferenceKindPaper, id, "Reference not found", "reference")
}

func (c *Catalog) Work(ctx context.Context, id string) (*domain.Reference, error) {
	return c.find(ctx, domain.ReferenceKindPersonal, id, "Work not found", "work")
}

func (c *Catalog) find(ctx context.Context, kind domain.ReferenceKind, id, msg, resource string) (*domain.Reference, error) {
	refs, err := c.byKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	for i := range refs {
		if refs[i].ID == id {
			ref := refs[i]
			return &ref, nil
		}
	}
	return nil, errors.NewNotFoundError(msg, resource, id)
}

func paperBlob(r *domain.Reference) string {
	return strings.ToLower(strings.Join([]string{
		r.Title, strings.Join(r.Authors, " "), strings.Join(r.Keywords, " "), r.Summary,
	}, " "))
}

func workBlob(r *domain.Reference) string {
	return strings.ToLower(strings.Join([]string{
		r.Title, r.Author, strings.Join(r.Keywords, " "), r.Positioning,
	}, " "))
}
