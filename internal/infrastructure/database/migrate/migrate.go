package migrate

import (
	"context"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
)

// Create runs the schema migration for every table against drv.
// Columns and indexes missing from the declared schema are dropped.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	opts = append([]schema.MigrateOption{
		schema.WithDropColumn(true),
		schema.WithDropIndex(true),
	}, opts...)
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}
