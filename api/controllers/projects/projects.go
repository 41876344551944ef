// Package projects exposes the project lifecycle over HTTP.
package projects

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/api/middleware"
	"github.com/angelmondragon/quoteengine-backend/api/responses"
	"github.com/angelmondragon/quoteengine-backend/api/validators"
	internalprojects "github.com/angelmondragon/quoteengine-backend/internal/projects"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
)

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create opens a draft project. The authenticated user becomes the owner unless the body names one.
func Create(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}

		var body internalprojects.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Name = validators.CleanText(body.Name, 200)
		if p, ok := middleware.PrincipalFromContext(r.Context()); ok && body.UserID == nil && p.UserID != uuid.Nil {
			body.UserID = &p.UserID
		}

		project, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, project)
	}
}

// List pages projects filtered by client_id, status and financial_status.
func List(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}

		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func Detail(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		project, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	})
}

// Summary returns the derived financial picture of a project.
func Summary(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		summary, err := svc.Summary(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	})
}

func UpdateStatus(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// the service validates the value after the financial-close check
		target := enums.ProjectStatus(strings.TrimSpace(body.Status))

		project, err := svc.UpdateStatus(r.Context(), id, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	})
}

func Cancel(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		project, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	})
}

func CloseEligibility(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		eligibility, err := svc.CloseEligibility(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, eligibility)
	})
}

// Close liquidates the project's supplier orders and freezes it financially.
func Close(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		project, err := svc.Close(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	})
}

func DeletionCheck(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		check, err := svc.CheckDeletion(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, check)
	})
}

func Delete(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "project_id": id})
	})
}

// AdminForceDelete removes the project and every dependent row regardless of guards.
func AdminForceDelete(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return withProjectID(svc, logg, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok || principal.UserID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		counts, err := svc.ForceDelete(r.Context(), id, principal.Actor())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"deleted":    true,
			"project_id": id,
			"counts":     counts,
		})
	})
}

type projectHandler func(w http.ResponseWriter, r *http.Request, id uuid.UUID)

func withProjectID(svc internalprojects.Service, logg *logger.Logger, next projectHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "project service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "projectID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next(w, r, id)
	}
}

func buildFilters(r *http.Request) (internalprojects.ListFilters, error) {
	var filters internalprojects.ListFilters

	clientID, err := validators.ParseOptionalUUIDQuery(r, "client_id")
	if err != nil {
		return filters, err
	}
	filters.ClientID = clientID

	status, err := validators.ParseEnumQuery(r, "status", enums.ParseProjectStatus)
	if err != nil {
		return filters, err
	}
	filters.Status = status

	financial, err := validators.ParseEnumQuery(r, "financial_status", enums.ParseFinancialStatus)
	if err != nil {
		return filters, err
	}
	filters.FinancialStatus = financial
	return filters, nil
}
