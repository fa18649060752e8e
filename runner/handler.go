package runner

import "context"

// Handler observes setup and apply events as a run progresses. The result
// passed alongside already includes the event. A non-nil error aborts the run.
type Handler interface {
	Event(ctx context.Context, event Event, result *Result) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event, result *Result) error

func (f HandlerFunc) Event(ctx context.Context, event Event, result *Result) error {
	return f(ctx, event, result)
}

// Chain delivers each event to its handlers in order. Nil entries are skipped
// and the first error wins.
type Chain []Handler

func (c Chain) Event(ctx context.Context, event Event, result *Result) error {
	for _, h := range c {
		if h == nil {
			continue
		}

		if err := h.Event(ctx, event, result); err != nil {
			return err
		}
	}

	return nil
}

func record(_ context.Context, event Event, result *Result) error {
	result.Add(event)

	return nil
}

// FailAfter aborts a run with ErrMaxFailures once n targets or batch files
// have failed. n <= 0 never aborts.
func FailAfter(n int) Handler {
	return HandlerFunc(func(_ context.Context, event Event, result *Result) error {
		if n > 0 && event.Action == ActionError && result.Errors >= n {
			return ErrMaxFailures
		}

		return nil
	})
}
