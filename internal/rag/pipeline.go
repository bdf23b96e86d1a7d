package rag

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/session"
	"github.com/xxxsen/medassist/internal/vectorstore"
)

// Pipeline wires retrieval, prompt composition, generation and
// customization for one question.
type Pipeline struct {
	index     *Index
	generator *Generator
	topK      int
	policy    string
}

func NewPipeline(index *Index, generator *Generator, topK int) *Pipeline {
	if topK <= 0 {
		topK = 3
	}
	return &Pipeline{index: index, generator: generator, topK: topK, policy: BasePolicy}
}

// Ask answers query and records the exchange in state. Retrieval is limited to
// the most recent upload of the session when there is one, otherwise to the
// shared knowledge base. On failure it returns GenericFailureAnswer together
// with the cause and leaves state untouched.
func (p *Pipeline) Ask(ctx context.Context, query string, profile *model.HealthProfile, state *session.State) (string, error) {
	logger := logutil.GetLogger(ctx)
	filter := vectorstore.Filter{DocID: state.RecentDocument()}
	chunks, err := p.index.Search(ctx, query, p.topK, filter)
	if err != nil {
		logger.Error("retrieve chunks failed", zap.String("doc_id", filter.DocID), zap.Error(err))
		return GenericFailureAnswer, err
	}
	prompt := Compose(p.policy, profile, state.RenderHistory())
	answer, err := p.generator.Generate(ctx, prompt, chunks, query)
	if err != nil {
		return GenericFailureAnswer, err
	}
	answer = Customize(answer, profile)
	state.Append(query, answer)
	logger.Debug("question answered", zap.Int("chunks", len(chunks)), zap.String("doc_id", filter.DocID))
	return answer, nil
}
