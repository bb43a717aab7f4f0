package pledge

import (
	"context"
	"fmt"
)

// DefaultReportLimit bounds report result sets when the caller passes no limit.
const DefaultReportLimit = 5

// TopCausesByAmount returns causes ordered by the sum of their promises'
// amounts, descending. Admin only at this surface; the queries themselves
// carry no authorization.
func (a *Actions) TopCausesByAmount(ctx context.Context, limit int) ([]CauseTotal, error) {
	if _, err := a.identity.authorize(opReports); err != nil {
		return nil, err
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return a.store.TopCausesByAmount(ctx, limit)
}

// TopCausesByPromises returns causes ordered by promise count, descending.
func (a *Actions) TopCausesByPromises(ctx context.Context, limit int) ([]CauseTotal, error) {
	if _, err := a.identity.authorize(opReports); err != nil {
		return nil, err
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return a.store.TopCausesByPromises(ctx, limit)
}

func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultReportLimit, nil
	}
	if limit < 0 || limit > 1000 {
		return 0, fmt.Errorf("%w: limit must be between 1 and 1000", ErrInvalidInput)
	}
	return limit, nil
}
