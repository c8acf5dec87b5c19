package database

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/estate/api/internal/config"
	"github.com/stwalsh4118/estate/api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ForeignKey describes a constraint AutoMigrate cannot infer, since the
// models carry plain id columns rather than gorm associations.
type ForeignKey struct {
	Table    string
	Column   string
	RefTable string
	OnDelete string
}

// Name is the constraint name, unique per table and column.
func (fk ForeignKey) Name() string {
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// SQL renders the ALTER TABLE statement adding the constraint.
func (fk ForeignKey) SQL() string {
	stmt := fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (id)",
		fk.Table, fk.Name(), fk.Column, fk.RefTable,
	)
	if fk.OnDelete != "" {
		stmt += " ON DELETE " + fk.OnDelete
	}
	return stmt
}

// ForeignKeys lists the schema's constraints. Association rows do not
// cascade so that a property delete must clear them explicitly; nested
// entries and media do.
var ForeignKeys = []ForeignKey{
	{Table: "properties", Column: "developer_id", RefTable: "developers", OnDelete: "SET NULL"},
	{Table: "properties", Column: "community_id", RefTable: "communities", OnDelete: "SET NULL"},
	{Table: "properties", Column: "property_type_id", RefTable: "property_types", OnDelete: "SET NULL"},
	{Table: "properties", Column: "status_id", RefTable: "property_statuses", OnDelete: "SET NULL"},

	{Table: "property_amenities", Column: "property_id", RefTable: "properties"},
	{Table: "property_amenities", Column: "amenity_id", RefTable: "amenities"},
	{Table: "property_features", Column: "property_id", RefTable: "properties"},
	{Table: "property_features", Column: "feature_id", RefTable: "features"},
	{Table: "property_views", Column: "property_id", RefTable: "properties"},
	{Table: "property_views", Column: "view_type_id", RefTable: "view_types"},

	{Table: "property_nearby_points", Column: "property_id", RefTable: "properties", OnDelete: "CASCADE"},
	{Table: "property_nearby_points", Column: "category_id", RefTable: "nearby_categories"},
	{Table: "property_construction_updates", Column: "property_id", RefTable: "properties", OnDelete: "CASCADE"},

	{Table: "property_images", Column: "property_id", RefTable: "properties", OnDelete: "CASCADE"},
	{Table: "property_documents", Column: "property_id", RefTable: "properties", OnDelete: "CASCADE"},
	{Table: "property_documents", Column: "document_type_id", RefTable: "document_types", OnDelete: "SET NULL"},
	{Table: "property_floor_plans", Column: "property_id", RefTable: "properties", OnDelete: "CASCADE"},
}

// TableStatus reports whether one registered table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// OpenGorm opens a gorm handle for schema management. The request path
// uses the pgx pool; gorm is only used by the migrate command.
func OpenGorm(cfg config.DatabaseConfig, verbose bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate creates or alters every registered table and adds the missing
// foreign keys. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(models.Registry...); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	for _, fk := range ForeignKeys {
		var count int64
		err := db.Raw(`SELECT count(*) FROM pg_constraint WHERE conname = ?`, fk.Name()).Scan(&count).Error
		if err != nil {
			return fmt.Errorf("failed to inspect constraint %s: %w", fk.Name(), err)
		}
		if count > 0 {
			continue
		}
		if err := db.Exec(fk.SQL()).Error; err != nil {
			return fmt.Errorf("failed to add constraint %s: %w", fk.Name(), err)
		}
	}
	return nil
}

// SchemaStatus lists every registered table with its presence.
func SchemaStatus(ctx context.Context, db *gorm.DB) []TableStatus {
	migrator := db.WithContext(ctx).Migrator()
	status := make([]TableStatus, 0, len(models.Registry))
	for _, model := range models.Registry {
		name := tableName(model)
		status = append(status, TableStatus{Table: name, Exists: migrator.HasTable(model)})
	}
	return status
}

func tableName(model interface{}) string {
	if t, ok := model.(interface{ TableName() string }); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", model)
}
