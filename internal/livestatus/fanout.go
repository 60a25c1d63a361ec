package livestatus

import (
	"context"
	"errors"

	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// Fanout forwards every call to each publisher and joins their errors.
type Fanout []interval.LiveStatusPublisher

func (f Fanout) Start(ctx context.Context, totalSets int) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.Start(ctx, totalSets))
	}
	return errors.Join(errs...)
}

func (f Fanout) Update(ctx context.Context, status interval.LiveStatus) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.Update(ctx, status))
	}
	return errors.Join(errs...)
}

func (f Fanout) End(ctx context.Context) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.End(ctx))
	}
	return errors.Join(errs...)
}
