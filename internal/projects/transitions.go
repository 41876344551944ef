package projects

import (
	"fmt"

	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
)

// checkTransition applies the rules every status write shares. The allowed moves
// themselves live in enums.ProjectStatus.CanTransitionTo.
func checkTransition(project *models.Project, target enums.ProjectStatus) error {
	if project.IsFinanciallyClosed() {
		return guardError(enums.GuardReasonFinanciallyClosed)
	}
	if !target.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid project status %q", target).
			WithDetails(map[string]string{"status": "must be one of draft, active, closed, cancelled"})
	}
	if project.Status == target {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "project is already %s", target)
	}
	if !project.Status.CanTransitionTo(target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("project cannot move from %s to %s", project.Status, target))
	}
	return nil
}

var guardMessages = map[enums.GuardReason]string{
	enums.GuardReasonApprovedQuotes:    "project has approved quotes",
	enums.GuardReasonSupplierOrders:    "project has supplier orders",
	enums.GuardReasonIncomes:           "project has recorded incomes",
	enums.GuardReasonExpenses:          "project has recorded expenses",
	enums.GuardReasonPendingOrders:     "project has unpaid supplier orders",
	enums.GuardReasonFinanciallyClosed: "project is financially closed",
}

func guardError(reason enums.GuardReason) error {
	return pkgerrors.Guard(reason.String(), guardMessages[reason])
}
