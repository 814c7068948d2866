package alignment

import (
	"context"
	"log/slog"
	"strings"

	"thoreinstein.com/flightcheck/pkg/ai"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// Sampling temperatures per request kind.
const (
	judgmentTemperature = 0.3
	guideTemperature    = 0.4
)

// Option configures the components in this package.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger sets the component's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func applyOptions(opts []Option) settings {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// judge sends one system+user exchange in JSON mode. Provider errors are
// returned unchanged; a blank reply is a JudgmentError.
func judge(ctx context.Context, p ai.Provider, component, system, prompt, model string, temperature float64) (string, error) {
	resp, err := p.Chat(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: prompt},
	}, ai.WithModel(model), ai.WithJSONResponse(), ai.WithTemperature(temperature))
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fcerrors.NewJudgmentError(component, "no response from "+p.Name())
	}
	return resp.Content, nil
}
