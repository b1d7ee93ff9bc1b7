package migrations

import _ "embed"

//go:embed 0003_create_quiz_history.sql
var createQuizHistorySQL string

func init() {
	Migrations.MustRegister(execSQL(createQuizHistorySQL), execSQL(`DROP TABLE IF EXISTS quiz_history`))
}
