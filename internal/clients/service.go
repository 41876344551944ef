package clients

import (
	"context"
	"strings"

	"github.com/google/uuid"

	pkgdb "github.com/angelmondragon/quoteengine-backend/pkg/db"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
)

// Ref identifies a client either by id or by name; name-only refs create the client on first use.
type Ref struct {
	ID    *uuid.UUID `json:"client_id,omitempty"`
	Name  string     `json:"client_name,omitempty"`
	Email *string    `json:"client_email,omitempty"`
	Phone *string    `json:"client_phone,omitempty"`
}

// Resolve finds the referenced client or creates it by name. Pass a tx-bound repository
// to make the creation part of a larger transaction.
func Resolve(ctx context.Context, repo Repository, ref Ref) (*models.Client, error) {
	if ref.ID != nil && *ref.ID != uuid.Nil {
		client, err := repo.FindByID(ctx, *ref.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load client")
		}
		if client == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return client, nil
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client_id or client_name is required")
	}

	existing, err := repo.FindByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load client")
	}
	if existing != nil {
		return existing, nil
	}

	client := &models.Client{Name: name, Email: ref.Email, Phone: ref.Phone}
	if err := repo.Create(ctx, client); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			// lost a race with a concurrent create of the same name
			if again, findErr := repo.FindByName(ctx, name); findErr == nil && again != nil {
				return again, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create client")
	}
	return client, nil
}
