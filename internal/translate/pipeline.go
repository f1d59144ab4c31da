package translate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	"golang.org/x/sync/errgroup"
)

// Pipeline turns a source-language layout document into a target-language
// copy. Segments translate concurrently in bounded batches; a segment that
// fails after retries keeps its source text so one bad string never loses the
// rest of the document.
type Pipeline struct {
	client interfaces.TranslatorClient
	cfg    Config
	logger interfaces.Logger
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger attaches a logger to the pipeline.
func WithPipelineLogger(logger interfaces.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline builds a document translation pipeline.
func NewPipeline(client interfaces.TranslatorClient, cfg Config, opts ...PipelineOption) *Pipeline {
	pipeline := &Pipeline{
		client: client,
		cfg:    cfg.withDefaults(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline
}

// TranslateDocument returns a copy of doc with its translatable strings in the
// target language. The fallback count reports how many segments kept their
// source text after exhausting retries.
func (p *Pipeline) TranslateDocument(ctx context.Context, doc map[string]any, source, target string) (map[string]any, int, error) {
	segments := ExtractSegments(doc)
	if len(segments) == 0 {
		return cloneMap(doc), 0, nil
	}

	translations := make(map[string]string, len(segments))
	var mu sync.Mutex
	fallbacks := 0

	for start := 0; start < len(segments); start += p.cfg.BatchSize {
		if start > 0 && p.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, fallbacks, ctx.Err()
			case <-time.After(p.cfg.BatchDelay):
			}
		}

		end := start + p.cfg.BatchSize
		if end > len(segments) {
			end = len(segments)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(p.cfg.BatchSize)
		for _, segment := range segments[start:end] {
			group.Go(func() error {
				translated, err := p.translateText(groupCtx, segment.Text, source, target)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					p.logger.Warn("segment translation failed, keeping source text",
						"path", segment.Path,
						"target", target,
						"error", err,
					)
					translations[segment.Path] = segment.Text
					fallbacks++
					return nil
				}
				translations[segment.Path] = translated
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, fallbacks, err
		}
		if err := ctx.Err(); err != nil {
			return nil, fallbacks, err
		}
	}

	return Reinject(doc, translations), fallbacks, nil
}

// translateText handles markup and oversized text: HTML is split so tags pass
// through untouched, and long plain text is chunked to the configured budget.
func (p *Pipeline) translateText(ctx context.Context, text, source, target string) (string, error) {
	if ContainsHTML(text) {
		parts := splitHTML(text)
		for i, part := range parts {
			if part.tag || strings.TrimSpace(part.text) == "" {
				continue
			}
			translated, err := p.translatePlain(ctx, part.text, source, target)
			if err != nil {
				return "", err
			}
			parts[i].text = translated
		}
		return joinHTML(parts), nil
	}
	return p.translatePlain(ctx, text, source, target)
}

func (p *Pipeline) translatePlain(ctx context.Context, text, source, target string) (string, error) {
	chunks := SplitIntoChunks(text, p.cfg.ChunkBytes)
	if len(chunks) == 1 {
		return p.client.Translate(ctx, chunks[0], source, target)
	}
	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		translated, err := p.client.Translate(ctx, chunk, source, target)
		if err != nil {
			return "", err
		}
		out[i] = translated
	}
	return strings.Join(out, ""), nil
}
