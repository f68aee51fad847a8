package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"yacontest/pkg/migrations"
)

//go:embed schema.sql
var Schema string

type SqliteStore struct {
	db *sql.DB
}

// Open opens the sqlite file at path, creating the schema if needed.
func Open(path string) (SqliteStore, error) {
	db, err := migrations.OpenAndMigrateDB(Schema, path)
	if err != nil {
		return SqliteStore{}, err
	}
	return SqliteStore{db: db}, nil
}

func (s SqliteStore) Close() error {
	return s.db.Close()
}

func (s SqliteStore) Load(ctx context.Context) (Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`select domain, login, password, contest_id, lang, cookies, problems
		from record where id = 1`,
	)

	var out Record
	var cookies, problems string
	err := row.Scan(
		&out.Domain,
		&out.Login,
		&out.Password,
		&out.ContestId,
		&out.Lang,
		&cookies,
		&problems,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load record: %w", err)
	}

	err = json.Unmarshal([]byte(cookies), &out.Cookies)
	if err != nil {
		return Record{}, fmt.Errorf("load record: cookies: %w", err)
	}
	err = json.Unmarshal([]byte(problems), &out.Problems)
	if err != nil {
		return Record{}, fmt.Errorf("load record: problems: %w", err)
	}
	return out, nil
}

func (s SqliteStore) Save(ctx context.Context, record Record) error {
	cookies := record.Cookies
	if cookies == nil {
		cookies = []Cookie{}
	}
	serializedCookies, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	problems := record.Problems
	if problems == nil {
		problems = map[string]string{}
	}
	serializedProblems, err := json.Marshal(problems)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`insert into record (id, domain, login, password, contest_id, lang, cookies, problems)
		values (1, ?, ?, ?, ?, ?, ?, ?)
		on conflict (id) do update set
			domain = excluded.domain,
			login = excluded.login,
			password = excluded.password,
			contest_id = excluded.contest_id,
			lang = excluded.lang,
			cookies = excluded.cookies,
			problems = excluded.problems`,
		record.Domain,
		record.Login,
		record.Password,
		record.ContestId,
		record.Lang,
		string(serializedCookies),
		string(serializedProblems),
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return tx.Commit()
}
