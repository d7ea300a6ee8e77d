package agentcore

import (
	"context"
	"errors"
	"fmt"
)

// FallbackInvoker tries primary first, then fallback.
type FallbackInvoker struct {
	primary  Invoker
	fallback Invoker
}

func NewFallbackInvoker(primary, fallback Invoker) *FallbackInvoker {
	return &FallbackInvoker{primary: primary, fallback: fallback}
}

func (f *FallbackInvoker) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

func (f *FallbackInvoker) Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error) {
	res, err := f.primary.Invoke(ctx, req)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return InvokeResult{}, err
	}

	res, fbErr := f.fallback.Invoke(ctx, req)
	if fbErr != nil {
		return InvokeResult{}, fmt.Errorf("%s invoker error: %w; %s invoker error: %v", f.primary.Name(), err, f.fallback.Name(), fbErr)
	}
	return res, nil
}
