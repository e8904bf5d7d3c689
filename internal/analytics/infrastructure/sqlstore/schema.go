package sqlstore

import (
	"context"
	"database/sql"
	"errors"
)

// sqliteSchema mirrors the historian tables for local runs and tests.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS "Rel_Diario" (
	"Time_Stamp" TIMESTAMP NOT NULL,
	"C0" REAL, "C1" REAL, "C2" REAL, "C3" REAL, "C4" REAL, "C5" INTEGER
)`,
	`CREATE TABLE IF NOT EXISTS "Rel_Carga" (
	"Time_Stamp" TIMESTAMP NOT NULL,
	"C0" INTEGER, "C1" INTEGER, "C2" REAL, "C3" REAL
)`,
	`CREATE TABLE IF NOT EXISTS "Rel_Quimico" (
	"Time_Stamp" TIMESTAMP NOT NULL,
	"Q1" REAL, "Q2" REAL, "Q3" REAL, "Q4" REAL, "Q5" REAL,
	"Q6" REAL, "Q7" REAL, "Q8" REAL, "Q9" REAL
)`,
	`CREATE TABLE IF NOT EXISTS "Sts_Dados" (
	"Time_Stamp" TIMESTAMP NOT NULL,
	"D1" REAL, "D2" INTEGER, "D3" REAL, "D4" INTEGER
)`,
	`CREATE TABLE IF NOT EXISTS "ALARMHISTORY" (
	"Al_ID" INTEGER,
	"Al_Tag" TEXT,
	"Al_Message" TEXT,
	"Al_Start_Time" TIMESTAMP,
	"Al_Norm_Time" TIMESTAMP,
	"Al_Priority" INTEGER,
	"Al_Selection" TEXT,
	"Al_Value" REAL,
	"Al_Limit" REAL
)`,
	`CREATE INDEX IF NOT EXISTS idx_rel_diario_ts ON "Rel_Diario" ("Time_Stamp")`,
	`CREATE INDEX IF NOT EXISTS idx_rel_carga_ts ON "Rel_Carga" ("Time_Stamp")`,
	`CREATE INDEX IF NOT EXISTS idx_alarmhistory_start ON "ALARMHISTORY" ("Al_Start_Time")`,
}

// EnsureSQLiteSchema creates the historian tables in an embedded database.
// The production historian is owned by the plant controller and is never
// created here.
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("sqlstore: nil db")
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
