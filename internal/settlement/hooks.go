package settlement

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Hook is a side effect that runs after a settlement transaction commits.
// Hook failures never fail the settlement.
type Hook struct {
	Name string
	Run  func(ctx context.Context) error
}

// runHooks executes every hook in order, isolating panics and errors. The
// combined error is returned for logging only.
func (e *engine) runHooks(ctx context.Context, hooks []Hook) error {
	var combined error
	for _, hook := range hooks {
		if err := e.runHook(ctx, hook); err != nil {
			e.metrics.IncHookFailure(hook.Name)
			if e.logg != nil {
				e.logg.Error(e.logg.WithField(ctx, "hook", hook.Name), "settlement hook failed", err)
			}
			combined = multierr.Append(combined, err)
		}
	}
	return combined
}

func (e *engine) runHook(ctx context.Context, hook Hook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook %s panicked: %v", hook.Name, r)
		}
	}()
	if hook.Run == nil {
		return nil
	}
	return hook.Run(ctx)
}
