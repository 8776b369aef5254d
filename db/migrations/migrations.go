package migrations

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var files embed.FS

const dir = "sql"

// gooseLogger направляет вывод goose в zerolog
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal().Msgf(format, v...)
}

func setup(log zerolog.Logger) error {
	goose.SetBaseFS(files)
	goose.SetLogger(gooseLogger{log: log.With().Str("component", "migrations").Logger()})
	return goose.SetDialect("postgres")
}

// Up применяет все встроенные миграции
func Up(db *sql.DB, log zerolog.Logger) error {
	if err := setup(log); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	return errors.Wrap(goose.Up(db, dir), "apply migrations")
}

// Down откатывает последнюю миграцию
func Down(db *sql.DB, log zerolog.Logger) error {
	if err := setup(log); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	return errors.Wrap(goose.Down(db, dir), "roll back migration")
}

func Status(db *sql.DB, log zerolog.Logger) error {
	if err := setup(log); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	return errors.Wrap(goose.Status(db, dir), "migration status")
}
