package nlu

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

// Answer is one analyzed question together with the text to display.
type Answer struct {
	Question       string                        `json:"question"`
	Classification domain.QuestionClassification `json:"classification"`
	Response       string                        `json:"response"`
	Fragments      Fragments                     `json:"fragments"`
	Citations      []domain.Reference            `json:"citations,omitempty"`
	GeneratedAt    time.Time                     `json:"generated_at"`
}

// Responder runs the analyze, assemble and cite chain for one profile.
type Responder struct {
	profile   *profile.Profile
	analyzer  *Analyzer
	assembler *Assembler
	citer     *Citer
	cache     *AnswerCache
	metrics   *metrics.Metrics
	now       util.Clock
	logger    *zap.Logger
}

type ResponderOption func(*Responder)

func WithCache(cache *AnswerCache) ResponderOption {
	return func(r *Responder) { r.cache = cache }
}

func WithMetrics(m *metrics.Metrics) ResponderOption {
	return func(r *Responder) { r.metrics = m }
}

func WithClock(clock util.Clock) ResponderOption {
	return func(r *Responder) {
		if clock != nil {
			r.now = clock
		}
	}
}

func NewResponder(p *profile.Profile, logger *zap.Logger, opts ...ResponderOption) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Responder{
		profile:   p,
		analyzer:  NewAnalyzer(p.Analysis),
		assembler: NewAssembler(p.Responses),
		citer:     NewCiter(p),
		now:       util.SystemClock,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Responder) Profile() *profile.Profile {
	return r.profile
}

func (r *Responder) Analyze(question string) domain.QuestionClassification {
	return r.analyzer.Analyze(question)
}

// Answer never fails; unknown or empty questions fall through to the general paragraph.
func (r *Responder) Answer(question string) *Answer {
	question = strings.TrimSpace(question)

	if cached, ok := r.cache.Get(question); ok {
		r.metrics.ObserveAnswerCache(true)
		r.metrics.ObserveQuestion(string(cached.Classification.Type))
		out := *cached
		out.Question = question
		return &out
	}
	r.metrics.ObserveAnswerCache(false)

	classification := r.analyzer.Analyze(question)
	citations := r.citer.Cite(question)
	response := r.assembler.Assemble(question, classification) + RefsSuffix(citations)

	answer := &Answer{
		Question:       question,
		Classification: classification,
		Response:       response,
		Fragments:      r.assembler.Fragments(classification),
		Citations:      citations,
		GeneratedAt:    r.now(),
	}

	r.metrics.ObserveQuestion(string(classification.Type))
	r.logger.Debug("Question answered",
		zap.String("question", util.TruncateString(question, 80)),
		zap.String("type", string(classification.Type)),
		zap.Strings("topics", classification.TopicStrings()),
		zap.String("level", string(classification.TechnicalLevel)),
		zap.Int("citations", len(citations)),
	)

	r.cache.Set(question, answer)
	return answer
}
