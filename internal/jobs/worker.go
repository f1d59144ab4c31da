package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-pagelayout/internal/layouts"
	"github.com/goliatone/go-pagelayout/internal/logging"
	"github.com/goliatone/go-pagelayout/internal/settings"
	"github.com/goliatone/go-pagelayout/pages"
	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	"github.com/google/uuid"
)

// LayoutRepository is the slice of the layout store the worker needs: reading
// the default-language source document and writing translated copies.
type LayoutRepository interface {
	Get(ctx context.Context, pageID uuid.UUID, language string) (*pages.PageLayout, error)
	Upsert(ctx context.Context, record *pages.PageLayout) (*pages.PageLayout, error)
}

// DocumentTranslator turns a layout document into a target-language copy and
// reports how many segments fell back to source text.
type DocumentTranslator interface {
	TranslateDocument(ctx context.Context, doc map[string]any, source, target string) (map[string]any, int, error)
}

// Worker drains the scheduler queue and executes translation fan-out jobs: for
// every configured language beyond the tenant's default it writes a translated
// copy of the page's default-language layout.
type Worker struct {
	scheduler  interfaces.Scheduler
	layouts    LayoutRepository
	settings   settings.Repository
	translator DocumentTranslator
	audit      AuditRecorder
	logger     interfaces.Logger
	now        func() time.Time
	batchSize  int
}

// Option customizes a Worker.
type Option func(*Worker)

// WithAuditRecorder wires the recorder that receives job outcome events.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

// WithLogger attaches a logger to the worker.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithBatchSize bounds how many due jobs one Process call drains.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// NewWorker builds the translation worker.
func NewWorker(scheduler interfaces.Scheduler, layoutRepo LayoutRepository, settingsRepo settings.Repository, translator DocumentTranslator, opts ...Option) *Worker {
	w := &Worker{
		scheduler:  scheduler,
		layouts:    layoutRepo,
		settings:   settingsRepo,
		translator: translator,
		logger:     logging.NoOp(),
		now:        time.Now,
		batchSize:  50,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls the scheduler until the context is canceled. Failed polls are
// logged and retried at the next tick.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Process(ctx); err != nil {
				w.logger.Error("job processing pass failed", "error", err)
			}
		}
	}
}

// Process drains one batch of due jobs. Per-job failures mark the job failed
// (the scheduler decides on retry) and never abort the batch.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	deadline := w.now()
	due, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range due {
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job, deadline); err != nil {
			w.logger.Warn("job failed", "job_id", job.ID, "type", job.Type, "error", err)
			_ = w.scheduler.MarkFailed(ctx, job.ID, err)
			continue
		}
		_ = w.scheduler.MarkDone(ctx, job.ID)
	}
	return nil
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job, now time.Time) error {
	switch job.Type {
	case layouts.TranslateJobType:
		return w.processTranslate(ctx, job, now)
	default:
		// Unknown job types complete silently so hosts can share the queue.
		return nil
	}
}

func (w *Worker) processTranslate(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.layouts == nil {
		return errors.New("jobs: layout repository is nil")
	}
	if w.translator == nil {
		return errors.New("jobs: translator is nil")
	}

	pageID, err := parsePayloadUUID(job.Payload, "page_id")
	if err != nil {
		return err
	}
	tenantID, err := parsePayloadUUID(job.Payload, "tenant_id")
	if err != nil {
		return err
	}
	scope := pages.TenantScope(tenantID)

	languageSet, err := settings.Languages(ctx, w.settings, scope)
	if err != nil {
		return err
	}
	targets := languageSet.Targets()
	if len(targets) == 0 {
		w.logger.Debug("no translation targets configured", "page_id", pageID.String())
		return nil
	}

	source, err := w.layouts.Get(ctx, pageID, pages.LanguageDefault)
	if err != nil {
		if errors.Is(err, pages.ErrLayoutNotFound) {
			// Nothing to fan out yet.
			return nil
		}
		return err
	}

	sourceLang := languageSet.Default
	if sourceLang == "" {
		sourceLang = "auto"
	}

	// A failed language never blocks the remaining targets. The job only
	// fails, and so retries, when nothing was written at all.
	translated := make([]string, 0, len(targets))
	failed := make([]string, 0)
	totalFallbacks := 0
	for _, target := range targets {
		document, fallbacks, err := w.translator.TranslateDocument(ctx, source.LayoutJSON, sourceLang, target)
		if err != nil {
			w.logger.Error("translate language failed",
				"page_id", pageID.String(),
				"language", target,
				"error", err,
			)
			failed = append(failed, target)
			continue
		}
		if _, err := w.layouts.Upsert(ctx, &pages.PageLayout{
			PageID:     pageID,
			Language:   target,
			LayoutJSON: document,
			UpdatedAt:  now,
		}); err != nil {
			w.logger.Error("store translated layout failed",
				"page_id", pageID.String(),
				"language", target,
				"error", err,
			)
			failed = append(failed, target)
			continue
		}
		translated = append(translated, target)
		totalFallbacks += fallbacks
	}
	if len(translated) == 0 && len(failed) > 0 {
		return fmt.Errorf("translate: all %d target languages failed", len(failed))
	}

	w.logger.Info("layout translated",
		"page_id", pageID.String(),
		"languages", translated,
		"fallback_segments", totalFallbacks,
	)
	w.recordAudit(ctx, AuditEvent{
		EntityType: "page_layout",
		EntityID:   pageID.String(),
		Action:     "translate",
		OccurredAt: now,
		Metadata: map[string]any{
			"job_id":            job.ID,
			"attempt":           job.Attempt,
			"languages":         translated,
			"failed_languages":  failed,
			"fallback_segments": totalFallbacks,
		},
	})
	return nil
}

func (w *Worker) recordAudit(ctx context.Context, event AuditEvent) {
	if w.audit == nil {
		return
	}
	if err := w.audit.Record(ctx, event); err != nil {
		w.logger.Warn("audit record failed", "entity_id", event.EntityID, "error", err)
	}
}

func parsePayloadUUID(payload map[string]any, key string) (uuid.UUID, error) {
	if payload == nil {
		return uuid.Nil, errors.New("jobs: missing payload")
	}
	raw, ok := payload[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: payload missing %s", key)
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: invalid %s payload", key)
	}
	return uuid.Parse(str)
}
