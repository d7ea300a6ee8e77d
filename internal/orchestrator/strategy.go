package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ent0n29/contactcenter/internal/stages"
)

// Strategy turns one customer message into a Result.
type Strategy interface {
	Name() string
	Process(ctx context.Context, turn Turn) (Result, error)
}

const defaultAgentTimeout = 20 * time.Second

// Selector runs the primary strategy under a deadline and, on any failure,
// the fallback strategy once. A nil primary means fallback only.
type Selector struct {
	primary  Strategy
	fallback Strategy
	timeout  time.Duration
}

func NewSelector(primary, fallback Strategy, timeout time.Duration) *Selector {
	if timeout <= 0 {
		timeout = defaultAgentTimeout
	}
	return &Selector{primary: primary, fallback: fallback, timeout: timeout}
}

// Outcome reports which strategy produced the result and why the primary
// was abandoned, if it was.
type Outcome struct {
	Result     Result
	Fallback   bool
	PrimaryErr error
}

func (s *Selector) Process(ctx context.Context, turn Turn) (Outcome, error) {
	var primaryErr error
	if s.primary != nil {
		res, err := s.runPrimary(ctx, turn)
		if err == nil {
			return Outcome{Result: res}, nil
		}
		primaryErr = err
	}

	res, err := s.fallback.Process(ctx, turn)
	if err == nil && res == nil {
		err = &LocalPipelineError{Stage: s.fallback.Name(), Err: errors.New("empty result")}
	}
	if err != nil {
		return Outcome{Fallback: true, PrimaryErr: primaryErr}, err
	}
	return Outcome{Result: res, Fallback: true, PrimaryErr: primaryErr}, nil
}

func (s *Selector) runPrimary(ctx context.Context, turn Turn) (res Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &RemoteCapabilityError{Stage: s.primary.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err = s.primary.Process(ctx, turn)
	if err == nil && res == nil {
		err = errors.New("empty result")
	}
	if err == nil {
		return res, nil
	}
	var remoteErr *RemoteCapabilityError
	if !errors.As(err, &remoteErr) {
		err = &RemoteCapabilityError{Stage: s.primary.Name(), Err: err}
	}
	return nil, err
}

// LocalStrategy runs the in-process stage pipeline.
type LocalStrategy struct {
	pipeline *stages.Pipeline
}

func NewLocalStrategy(p *stages.Pipeline) *LocalStrategy {
	return &LocalStrategy{pipeline: p}
}

func (s *LocalStrategy) Name() string { return "local" }

func (s *LocalStrategy) Process(ctx context.Context, turn Turn) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &LocalPipelineError{Stage: "pipeline", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err := s.pipeline.Run(ctx, stages.PipelineInput{
		Message:    turn.Message,
		LastIntent: turn.LastIntent,
		Profile:    turn.Profile,
		History:    turn.History,
	})
	if err != nil {
		return nil, &LocalPipelineError{Stage: "pipeline", Err: err}
	}
	return &LocalResult{Output: out}, nil
}
