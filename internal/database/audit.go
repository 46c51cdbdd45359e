// internal/database/audit.go
package database

import (
	"context"

	"gorm.io/gorm"
)

type actorKey struct{}

// SystemActor is recorded when no authenticated user drives the write (sweeps, seeds, CLI).
const SystemActor = "system"

func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return SystemActor
	}
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}

// AuditPlugin stamps created_by / modified_by on every create and update
// from the actor stored in the statement context.
type AuditPlugin struct{}

func (AuditPlugin) Name() string { return "audit_stamping" }

func (AuditPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("audit:stamp_create", stampCreate); err != nil {
		return err
	}
	return db.Callback().Update().Before("gorm:update").Register("audit:stamp_update", stampUpdate)
}

func stampCreate(db *gorm.DB) {
	if db.Statement.Schema == nil {
		return
	}
	actor := ActorFromContext(db.Statement.Context)
	if db.Statement.Schema.LookUpField("CreatedBy") != nil {
		db.Statement.SetColumn("CreatedBy", actor, true)
	}
	if db.Statement.Schema.LookUpField("ModifiedBy") != nil {
		db.Statement.SetColumn("ModifiedBy", actor, true)
	}
}

func stampUpdate(db *gorm.DB) {
	if db.Statement.Schema == nil || db.Statement.Schema.LookUpField("ModifiedBy") == nil {
		return
	}
	db.Statement.SetColumn("ModifiedBy", ActorFromContext(db.Statement.Context), true)
}
