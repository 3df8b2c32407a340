package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	billing "medibill-ai/internal/billing/domain"
	"medibill-ai/internal/coverage"
	explain "medibill-ai/internal/explain/domain"
	"medibill-ai/internal/interactionlog"
	"medibill-ai/internal/observability/metrics"
)

const (
	defaultRetries    = 1
	defaultRetryDelay = 500 * time.Millisecond
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classifier assigns coverage labels.
type Classifier interface {
	Classify(item billing.Item) coverage.Label
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Options controls a single Explain call.
type Options struct {
	// Visual also requests an illustration description.
	Visual bool
}

// Service orchestrates prompts, the generator and the coverage heuristic.
type Service struct {
	generator  Generator
	classifier Classifier
	recorder   interactionlog.Logger
	logger     zerolog.Logger
	clock      Clock
	retries    int
	retryDelay time.Duration
}

// Option configures the service.
type Option func(*Service)

// WithInteractionLogger sets where prompt/response pairs are recorded.
func WithInteractionLogger(recorder interactionlog.Logger) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRetry sets how many times an unavailable generator is retried and the
// fixed delay between attempts.
func WithRetry(retries int, delay time.Duration) Option {
	return func(s *Service) {
		if retries >= 0 {
			s.retries = retries
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

// NewService constructs an explanation service.
func NewService(generator Generator, classifier Classifier, opts ...Option) (*Service, error) {
	if generator == nil {
		return nil, errors.New("explain service: nil generator")
	}
	if classifier == nil {
		return nil, errors.New("explain service: nil classifier")
	}
	s := &Service{
		generator:  generator,
		classifier: classifier,
		recorder:   interactionlog.Nop{},
		logger:     zerolog.Nop(),
		clock:      systemClock{},
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Explain returns the explanation of item for mode and lang, reusing the
// session cache when possible. Failures are never cached.
func (s *Service) Explain(ctx context.Context, cache *Cache, item billing.Item, mode explain.AudienceMode, lang explain.Language, opts Options) (explain.Explanation, error) {
	if cache == nil {
		return explain.Explanation{}, explain.ErrNilCache
	}
	if !mode.IsValid() {
		return explain.Explanation{}, explain.ErrInvalidMode
	}
	if !lang.IsValid() {
		return explain.Explanation{}, explain.ErrInvalidLanguage
	}

	key := explain.Key{ItemID: item.ID, Mode: mode, Language: lang}
	result, ok := cache.Get(key)
	if ok && (!opts.Visual || result.VisualDescription != "") {
		metrics.IncExplanation(string(interactionlog.KindExplanation), metrics.ResultHit)
		return result, nil
	}

	if !ok {
		generated, err := s.explain(ctx, item, mode, lang)
		if err != nil {
			return explain.Explanation{}, err
		}
		result = generated
	}

	if opts.Visual {
		visual, err := s.visual(ctx, item, mode, lang)
		if err != nil {
			if ctx.Err() != nil {
				cache.Put(result)
				return explain.Explanation{}, err
			}
			result.VisualUnavailable = true
		} else {
			result.VisualDescription = visual
			result.VisualUnavailable = false
		}
	}

	cache.Put(result)
	return result, nil
}

func (s *Service) explain(ctx context.Context, item billing.Item, mode explain.AudienceMode, lang explain.Language) (explain.Explanation, error) {
	kind := interactionlog.KindExplanation
	label := s.classifier.Classify(item)
	if !label.IsValid() {
		label = coverage.Unknown
	}
	metadata := s.metadata(item, mode, lang)
	metadata["coverage_label"] = string(label)

	prompt := BuildExplanationPrompt(item, mode, lang)
	text, attempts, err := s.generate(ctx, prompt)
	metadata["attempts"] = strconv.Itoa(attempts)
	if err != nil {
		s.fail(kind, item, err)
		return explain.Explanation{}, err
	}

	payload, err := parseExplanation(text)
	if err != nil {
		metadata["error"] = "parse_error"
		s.record(ctx, kind, prompt, text, metadata)
		s.fail(kind, item, err)
		return explain.Explanation{}, err
	}
	metadata["insurance_status"] = payload.InsuranceStatus
	s.record(ctx, kind, prompt, text, metadata)
	metrics.IncExplanation(string(kind), metrics.ResultSuccess)

	return explain.Explanation{
		ItemID:        item.ID,
		Mode:          mode,
		Language:      lang,
		Text:          payload.Explanation,
		Coverage:      label,
		InsuranceNote: payload.InsuranceNote,
		Disclaimer:    payload.Disclaimer,
		GeneratedAt:   s.clock.Now(),
	}, nil
}

func (s *Service) visual(ctx context.Context, item billing.Item, mode explain.AudienceMode, lang explain.Language) (string, error) {
	kind := interactionlog.KindVisual
	metadata := s.metadata(item, mode, lang)

	prompt := BuildVisualPrompt(item, lang)
	text, attempts, err := s.generate(ctx, prompt)
	metadata["attempts"] = strconv.Itoa(attempts)
	if err != nil {
		s.fail(kind, item, err)
		return "", err
	}
	visual, err := parseVisual(text)
	if err != nil {
		metadata["error"] = "parse_error"
		s.record(ctx, kind, prompt, text, metadata)
		s.fail(kind, item, err)
		return "", err
	}
	s.record(ctx, kind, prompt, text, metadata)
	metrics.IncExplanation(string(kind), metrics.ResultSuccess)
	return visual, nil
}

// generate calls the generator, retrying only unavailable errors.
func (s *Service) generate(ctx context.Context, prompt string) (string, int, error) {
	attempt := 0
	for {
		attempt++
		start := time.Now()
		text, err := s.generator.Generate(ctx, prompt)
		metrics.ObserveGenerator(resultLabel(err), time.Since(start))
		if err == nil {
			return text, attempt, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", attempt, fmt.Errorf("%w: %w", explain.ErrServiceUnavailable, ctxErr)
		}
		if errors.Is(err, explain.ErrParse) {
			return "", attempt, err
		}
		if !errors.Is(err, explain.ErrServiceUnavailable) {
			err = fmt.Errorf("%w: %v", explain.ErrServiceUnavailable, err)
		}
		if attempt > s.retries {
			return "", attempt, err
		}

		metrics.IncGeneratorRetry()
		s.logger.Debug().Err(err).Int("attempt", attempt).Msg("generator unavailable, retrying")
		if s.retryDelay > 0 {
			timer := time.NewTimer(s.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", attempt, fmt.Errorf("%w: %w", explain.ErrServiceUnavailable, ctx.Err())
			case <-timer.C:
			}
		}
	}
}

func (s *Service) metadata(item billing.Item, mode explain.AudienceMode, lang explain.Language) map[string]string {
	return map[string]string{
		"item_id":     item.ID,
		"description": item.Description,
		"category":    string(item.Category),
		"mode":        string(mode),
		"language":    string(lang),
	}
}

func (s *Service) record(ctx context.Context, kind interactionlog.Kind, prompt, response string, metadata map[string]string) {
	s.recorder.Log(context.WithoutCancel(ctx), interactionlog.Entry{
		Timestamp: s.clock.Now(),
		Kind:      kind,
		Prompt:    prompt,
		Response:  response,
		Metadata:  metadata,
	})
}

func (s *Service) fail(kind interactionlog.Kind, item billing.Item, err error) {
	metrics.IncExplanation(string(kind), resultLabel(err))
	s.logger.Warn().Err(err).Str("kind", string(kind)).Str("item_id", item.ID).Msg("explanation failed")
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCancelled
	case errors.Is(err, explain.ErrParse):
		return metrics.ResultParseError
	default:
		return metrics.ResultUnavailable
	}
}
