package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

// StatusTransition moves one row from any of From to To. The update only
// lands while the row still carries one of the From statuses, so two
// writers racing on the same row cannot both win.
type StatusTransition struct {
	Model schema.Tabler
	ID    uuid.UUID
	From  []string
	To    string
	// Set holds extra columns written with the status.
	Set map[string]any
}

// CASGuard applies StatusTransitions.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

// Apply runs t and returns a conflict error when the row had already left
// the From statuses.
func (g CASGuard) Apply(dbc dbctx.Context, t StatusTransition) error {
	db := dbc.Tx
	if db == nil {
		db = g.db
	}
	if db == nil {
		return ValidationError("missing db transaction context")
	}
	if t.Model == nil || t.ID == uuid.Nil {
		return ValidationError("status transition needs a model and an id")
	}
	to := strings.TrimSpace(t.To)
	if to == "" || len(t.From) == 0 {
		return ValidationError("status transition needs from and to statuses")
	}

	updates := make(map[string]any, len(t.Set)+1)
	for k, v := range t.Set {
		updates[k] = v
	}
	updates["status"] = to

	res := db.WithContext(dbc.Ctx).
		Table(t.Model.TableName()).
		Where("id = ? AND status IN ?", t.ID, t.From).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("%s %s is no longer %s", t.Model.TableName(), t.ID, strings.Join(t.From, "/")))
	}
	return nil
}
