package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/KunArthit/petterrain-api-sub000/apperr"
	"github.com/KunArthit/petterrain-api-sub000/database"
	"github.com/KunArthit/petterrain-api-sub000/models"
)

// LocalizedTable maps a base entity B and its per-language translation T
// onto a base table and a translation table keyed by (ForeignKey, lang).
// Translation columns are all text.
type LocalizedTable[B any, T any] struct {
	Entity string

	BaseTable   string
	BaseColumns []string // writable columns, without id and timestamps
	BaseValues  func(B) []any
	ScanBase    func(*B) []any // id, BaseColumns..., created_at, updated_at
	BaseID      func(B) int64
	ListWhere   string // optional filter on alias b for public listings

	TranslationTable   string
	ForeignKey         string
	TranslationColumns []string // without ForeignKey and lang
	TranslationValues  func(T) (lang string, values []string)
	NewTranslation     func(id int64, lang string, values []string) T
}

// LocalizedStore is the generic CRUD layer shared by products, categories
// and blog posts. Reads join exactly the requested language; a missing
// translation yields a nil Translation rather than another language.
type LocalizedStore[B any, T any] struct {
	db    *sql.DB
	table LocalizedTable[B, T]
}

func NewLocalizedStore[B any, T any](db *sql.DB, table LocalizedTable[B, T]) *LocalizedStore[B, T] {
	return &LocalizedStore[B, T]{db: db, table: table}
}

func (s *LocalizedStore[B, T]) op(action string) string {
	return s.table.Entity + "." + action
}

func (s *LocalizedStore[B, T]) baseSelect() string {
	cols := make([]string, 0, len(s.table.BaseColumns)+3)
	cols = append(cols, "b.id")
	for _, c := range s.table.BaseColumns {
		cols = append(cols, "b."+c)
	}
	cols = append(cols, "b.created_at", "b.updated_at")
	return strings.Join(cols, ", ")
}

func (s *LocalizedStore[B, T]) translationSelect() string {
	cols := make([]string, 0, len(s.table.TranslationColumns)+1)
	cols = append(cols, "t.lang")
	for _, c := range s.table.TranslationColumns {
		cols = append(cols, "t."+c)
	}
	return strings.Join(cols, ", ")
}

func placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ph, ", ")
}

// scanJoined reads a base row plus the nullable LEFT JOIN translation.
func (s *LocalizedStore[B, T]) scanJoined(row rowScanner) (models.Localized[B, T], error) {
	var (
		out  models.Localized[B, T]
		lang sql.NullString
	)
	vals := make([]sql.NullString, len(s.table.TranslationColumns))

	dest := s.table.ScanBase(&out.Base)
	dest = append(dest, &lang)
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	if err := row.Scan(dest...); err != nil {
		return out, err
	}

	if lang.Valid {
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = v.String
		}
		tr := s.table.NewTranslation(s.table.BaseID(out.Base), lang.String, strs)
		out.Translation = &tr
	}
	return out, nil
}

// Create writes the base row and every translation in one transaction. At
// least one translation is required and languages must be distinct.
func (s *LocalizedStore[B, T]) Create(ctx context.Context, base B, translations []T) (models.Localized[B, T], error) {
	op := s.op("create")

	if len(translations) == 0 {
		return models.Localized[B, T]{}, apperr.Validation(op, "at least one translation is required")
	}
	seen := make(map[string]bool, len(translations))
	for _, tr := range translations {
		lang, _ := s.table.TranslationValues(tr)
		if lang == "" {
			return models.Localized[B, T]{}, apperr.Validation(op, "translation lang is required")
		}
		if seen[lang] {
			return models.Localized[B, T]{}, apperr.Validation(op, "duplicate translation for lang %q", lang)
		}
		seen[lang] = true
	}

	var out models.Localized[B, T]
	err := database.WithTx(ctx, s.db, op, func(tx *sql.Tx) error {
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id, %s, created_at, updated_at",
			s.table.BaseTable,
			strings.Join(s.table.BaseColumns, ", "),
			placeholders(1, len(s.table.BaseColumns)),
			strings.Join(s.table.BaseColumns, ", "))

		err := tx.QueryRowContext(ctx, query, s.table.BaseValues(base)...).Scan(s.table.ScanBase(&out.Base)...)
		if err != nil {
			return s.classify(op, err)
		}

		id := s.table.BaseID(out.Base)
		for i, tr := range translations {
			saved, err := s.insertTranslation(ctx, tx, op, id, tr, false)
			if err != nil {
				return err
			}
			if i == 0 {
				out.Translation = &saved
			}
		}
		return nil
	})
	if err != nil {
		return models.Localized[B, T]{}, err
	}
	return out, nil
}

func (s *LocalizedStore[B, T]) insertTranslation(ctx context.Context, q database.Querier, op string, id int64, tr T, upsert bool) (T, error) {
	lang, values := s.table.TranslationValues(tr)

	cols := append([]string{s.table.ForeignKey, "lang"}, s.table.TranslationColumns...)
	args := make([]any, 0, len(cols))
	args = append(args, id, lang)
	for _, v := range values {
		args = append(args, v)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table.TranslationTable, strings.Join(cols, ", "), placeholders(1, len(cols)))
	if upsert {
		sets := make([]string, len(s.table.TranslationColumns))
		for i, c := range s.table.TranslationColumns {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
		}
		query += fmt.Sprintf(" ON CONFLICT (%s, lang) DO UPDATE SET %s", s.table.ForeignKey, strings.Join(sets, ", "))
	}

	var zero T
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if database.IsForeignKeyViolation(err) {
			return zero, apperr.NotFound(op, "%s %d not found", s.table.Entity, id)
		}
		return zero, s.classify(op, err)
	}
	return s.table.NewTranslation(id, lang, values), nil
}

func (s *LocalizedStore[B, T]) classify(op string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return apperr.Duplicate(op, s.table.Entity, database.Constraint(err), err)
	case database.IsForeignKeyViolation(err):
		e := apperr.Validation(op, "%s references a record that does not exist", s.table.Entity)
		e.Details = map[string]any{"constraint": database.Constraint(err)}
		return e
	}
	return err
}

func (s *LocalizedStore[B, T]) Get(ctx context.Context, id int64, lang string) (models.Localized[B, T], error) {
	op := s.op("get")
	query := fmt.Sprintf("SELECT %s, %s FROM %s b LEFT JOIN %s t ON t.%s = b.id AND t.lang = $2 WHERE b.id = $1",
		s.baseSelect(), s.translationSelect(), s.table.BaseTable, s.table.TranslationTable, s.table.ForeignKey)

	out, err := s.scanJoined(s.db.QueryRowContext(ctx, query, id, lang))
	if database.IsNoRows(err) {
		return out, apperr.NotFound(op, "%s %d not found", s.table.Entity, id)
	}
	if err != nil {
		return out, apperr.Internal(op, err)
	}
	return out, nil
}

// List pages through entities ordered by id. publicOnly applies ListWhere.
func (s *LocalizedStore[B, T]) List(ctx context.Context, lang string, limit, offset int, publicOnly bool) ([]models.Localized[B, T], error) {
	op := s.op("list")
	where := ""
	if publicOnly && s.table.ListWhere != "" {
		where = " WHERE " + s.table.ListWhere
	}
	query := fmt.Sprintf("SELECT %s, %s FROM %s b LEFT JOIN %s t ON t.%s = b.id AND t.lang = $1%s ORDER BY b.id LIMIT $2 OFFSET $3",
		s.baseSelect(), s.translationSelect(), s.table.BaseTable, s.table.TranslationTable, s.table.ForeignKey, where)

	rows, err := s.db.QueryContext(ctx, query, lang, limit, offset)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	defer rows.Close()

	out := []models.Localized[B, T]{}
	for rows.Next() {
		item, err := s.scanJoined(rows)
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(op, err)
	}
	return out, nil
}

// Translations returns every language stored for id.
func (s *LocalizedStore[B, T]) Translations(ctx context.Context, id int64) ([]T, error) {
	op := s.op("translations")
	query := fmt.Sprintf("SELECT lang, %s FROM %s WHERE %s = $1 ORDER BY lang",
		strings.Join(s.table.TranslationColumns, ", "), s.table.TranslationTable, s.table.ForeignKey)

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var lang string
		vals := make([]string, len(s.table.TranslationColumns))
		dest := []any{&lang}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, apperr.Internal(op, err)
		}
		out = append(out, s.table.NewTranslation(id, lang, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(op, err)
	}
	return out, nil
}

// UpsertTranslation inserts or replaces the translation for tr's language.
func (s *LocalizedStore[B, T]) UpsertTranslation(ctx context.Context, id int64, tr T) (T, error) {
	op := s.op("upsert_translation")
	if lang, _ := s.table.TranslationValues(tr); lang == "" {
		var zero T
		return zero, apperr.Validation(op, "translation lang is required")
	}
	saved, err := s.insertTranslation(ctx, s.db, op, id, tr, true)
	if err != nil {
		return saved, internalErr(op, err)
	}
	return saved, nil
}

// Delete removes the entity; translations cascade.
func (s *LocalizedStore[B, T]) Delete(ctx context.Context, id int64) error {
	op := s.op("delete")
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table.BaseTable), id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Validation(op, "%s %d is still referenced", s.table.Entity, id)
		}
		return apperr.Internal(op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(op, "%s %d not found", s.table.Entity, id)
	}
	return nil
}
