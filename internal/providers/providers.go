package providers

import (
	"context"
	"errors"
	"fmt"

	"calendar-service/internal/models"
)

var ErrUnknownProvider = errors.New("unknown freebusy provider")

// FreeBusyQuery addresses one provider's calendars over a window.
type FreeBusyQuery struct {
	CalendarIDs []string
	StartTs     int64
	EndTs       int64
}

// Provider returns pre-computed busy instances for externally hosted
// calendars (Google, Outlook). The output feeds the same merge as
// internally sourced busy instances; no special-casing downstream.
type Provider interface {
	FreeBusy(ctx context.Context, query FreeBusyQuery) ([]models.EventInstance, error)
}

// Registry dispatches freebusy lookups by BusyCalendar provider tag.
type Registry struct {
	providers map[models.BusyCalendarProvider]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[models.BusyCalendarProvider]Provider)}
}

func (r *Registry) Register(name models.BusyCalendarProvider, p Provider) {
	r.providers[name] = p
}

func (r *Registry) FreeBusy(ctx context.Context, name models.BusyCalendarProvider, query FreeBusyQuery) ([]models.EventInstance, error) {
	const op = "providers.Registry.FreeBusy"

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnknownProvider, name)
	}

	instances, err := p.FreeBusy(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, name, err)
	}

	return instances, nil
}
