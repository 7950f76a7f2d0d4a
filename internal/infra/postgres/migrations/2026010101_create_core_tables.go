package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_users.sql
var createUsersSQL string

//go:embed 0002_create_competitions.sql
var createCompetitionsSQL string

//go:embed 0003_create_question_sessions.sql
var createQuestionSessionsSQL string

//go:embed 0004_create_submissions.sql
var createSubmissionsSQL string

var Migrations = migrate.NewMigrations()

func init() {
	register(createUsersSQL, `DROP TABLE IF EXISTS users`)
	register(createCompetitionsSQL, `DROP TABLE IF EXISTS competitions`)
	register(createQuestionSessionsSQL, `DROP TABLE IF EXISTS question_sessions`)
	register(createSubmissionsSQL, `DROP TABLE IF EXISTS submissions`)
}

func register(up, down string) {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(up)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(down)
			return err
		},
	)
}
