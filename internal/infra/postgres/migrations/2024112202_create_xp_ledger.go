package migrations

import _ "embed"

//go:embed 0002_create_xp_ledger.sql
var createXPLedgerSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createXPLedgerSQL),
		execSQL(`DROP TABLE IF EXISTS user_xp; DROP TABLE IF EXISTS xp_ledger`),
	)
}
