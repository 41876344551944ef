package projects

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

type guardCheck struct {
	reason enums.GuardReason
	count  func(context.Context, uuid.UUID) (int64, error)
}

// cancelGuard blocks cancellation once money has moved.
func cancelGuard(repo Repository) []guardCheck {
	return []guardCheck{
		{reason: enums.GuardReasonIncomes, count: repo.CountIncomes},
		{reason: enums.GuardReasonExpenses, count: repo.CountVariableExpenses},
	}
}

// deletionGuard lists the delete blockers in priority order.
func deletionGuard(repo Repository) []guardCheck {
	return []guardCheck{
		{reason: enums.GuardReasonApprovedQuotes, count: repo.CountApprovedQuotes},
		{reason: enums.GuardReasonSupplierOrders, count: repo.CountSupplierOrders},
		{reason: enums.GuardReasonIncomes, count: repo.CountIncomes},
		{reason: enums.GuardReasonExpenses, count: repo.CountVariableExpenses},
	}
}

// firstViolation runs checks in order and returns the reason of the first one with rows.
func firstViolation(ctx context.Context, projectID uuid.UUID, checks []guardCheck) (enums.GuardReason, error) {
	for _, check := range checks {
		n, err := check.count(ctx, projectID)
		if err != nil {
			return "", err
		}
		if n > 0 {
			return check.reason, nil
		}
	}
	return "", nil
}
