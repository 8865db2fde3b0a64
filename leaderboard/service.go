package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/pipeline"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/registry"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
)

const (
	ModeApproximate = "approximate"
	ModeExact       = "exact"
)

// InvalidQueryError is returned for a bad mode or k.
type InvalidQueryError struct {
	msg string
}

func (e *InvalidQueryError) Error() string {
	return e.msg
}

// Response is a ranked answer.
type Response struct {
	Mode    string  `json:"mode"`
	K       int     `json:"k"`
	Entries []Entry `json:"entries"`
	// Missing is set when the mode has no state yet, entries are then empty
	Missing bool `json:"missing"`
}

// Querier answers top-k queries.
type Querier interface {
	TopK(ctx context.Context, mode string, k int) (*Response, error)
	Reconcile(ctx context.Context) (*Report, error)
}

// Service answers queries straight from stored state.
type Service struct {
	states  *pipeline.SketchRepository
	batches *pipeline.BatchRepository
	keys    registry.KeyRegistry
	// when set, approximate queries fold pending events first
	refresh *pipeline.StreamUpdater
}

func NewService(states *pipeline.SketchRepository, batches *pipeline.BatchRepository, keys registry.KeyRegistry) *Service {
	return &Service{states: states, batches: batches, keys: keys}
}

// WithStreamRefresh runs one stream update before each approximate query.
func (s *Service) WithStreamRefresh(u *pipeline.StreamUpdater) *Service {
	s.refresh = u
	return s
}

func validate(mode string, k int) error {
	if mode != ModeApproximate && mode != ModeExact {
		return &InvalidQueryError{fmt.Sprintf("mode must be %s or %s, got '%s'", ModeApproximate, ModeExact, mode)}
	}
	if k <= 0 {
		return &InvalidQueryError{fmt.Sprintf("k must be a positive integer, got %d", k)}
	}
	return nil
}

func (s *Service) TopK(ctx context.Context, mode string, k int) (*Response, error) {
	err := validate(mode, k)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		prom.QueryDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()
	resp := &Response{Mode: mode, K: k, Entries: []Entry{}}
	if mode == ModeApproximate {
		err = s.approximate(ctx, resp)
	} else {
		err = s.exact(ctx, resp)
	}
	var missing *pipeline.MissingStateError
	if errors.As(err, &missing) {
		st.Logger.Info().Str("mode", mode).Msg(missing.Error())
		prom.QueryMissingState.WithLabelValues(mode).Inc()
		resp.Missing = true
		resp.Entries = []Entry{}
		return resp, nil
	} else if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) approximate(ctx context.Context, resp *Response) error {
	if s.refresh != nil {
		_, err := s.refresh.Run(ctx)
		var locked *pipeline.LockedError
		if errors.As(err, &locked) {
			st.Logger.Debug().Msg("stream update already running, answering from current sketch")
		} else if err != nil {
			return fmt.Errorf("failed to refresh sketch: %w", err)
		}
	}
	cms, err := s.states.Load(ctx)
	if err != nil {
		return err
	}
	keys, err := s.keys.AllKnownKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list candidate keys: %w", err)
	}
	resp.Entries = ApproximateTopK(cms, keys, resp.K)
	return nil
}

func (s *Service) exact(ctx context.Context, resp *Response) error {
	batches, err := s.batches.All(ctx)
	if err != nil {
		return err
	}
	resp.Entries = ExactTopK(batches, resp.K)
	return nil
}

// Reconcile compares the sketch with the batch totals.
// Report.Missing is set when either side has no state yet.
func (s *Service) Reconcile(ctx context.Context) (*Report, error) {
	var missing *pipeline.MissingStateError
	cms, err := s.states.Load(ctx)
	if errors.As(err, &missing) {
		return &Report{Missing: true, Violations: []Violation{}}, nil
	} else if err != nil {
		return nil, err
	}
	batches, err := s.batches.All(ctx)
	if errors.As(err, &missing) {
		return &Report{Missing: true, Violations: []Violation{}}, nil
	} else if err != nil {
		return nil, err
	}
	report := Reconcile(cms, batches)
	prom.ReconcileViolations.Set(float64(len(report.Violations)))
	if len(report.Violations) > 0 {
		st.Logger.Warn().Int("violations", len(report.Violations)).Msg("sketch estimates below exact counts, pipelines have consumed different events")
	}
	return report, nil
}
