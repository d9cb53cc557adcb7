package infra

import (
	"fmt"

	"ventarapida/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table of the service, in dependency order.
var Models = []interface{}{
	&model.Usuario{},
	&model.Cliente{},
	&model.Producto{},
	&model.MovimientoStock{},
	&model.Venta{},
	&model.VentaItem{},
	&model.EventoOutbox{},
}

// NewDatabase establishes a GORM connection backed by pgx and brings the
// schema up to date with RunMigrations.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates all tables with AutoMigrate and, on
// PostgreSQL, applies the CHECK constraints GORM cannot express. It is used
// both at startup and by tests (SQLite skips the patches).
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements. Each constraint is only
// added when it does not exist yet, so re-running on a patched DB is a no-op.
// These are the last line of defence behind the row locks of the sale flow:
// no quantity or balance can be persisted below zero.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ tabla, nombre, check string }{
		{"productos", "chk_productos_cantidad_no_negativa", "cantidad >= 0"},
		{"productos", "chk_productos_precio_costo_no_negativo", "precio_costo >= 0"},
		{"usuarios", "chk_usuarios_saldo_no_negativo", "saldo >= 0"},
		{"venta_items", "chk_venta_items_cantidad_positiva", "cantidad > 0"},
		{"ventas", "chk_ventas_descuento_no_negativo", "descuento >= 0"},
		{"movimientos_stock", "chk_movimientos_stock_tipo", "tipo IN ('entrada', 'salida', 'ajuste')"},
	}
	for _, p := range patches {
		sql := fmt.Sprintf(`DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%[2]s') THEN
    ALTER TABLE %[1]s ADD CONSTRAINT %[2]s CHECK (%[3]s);
  END IF;
END $$`, p.tabla, p.nombre, p.check)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.nombre, err)
		}
	}
	return nil
}
