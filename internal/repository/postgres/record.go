package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"member-service/internal/authz"
	apperrors "member-service/pkg/errors"
)

// RecordStore is generic access to resource collections. Table names
// are restricted to the registered resource set, so only identifiers
// validated at startup ever reach query text.
type RecordStore struct {
	db     *DB
	tables map[string]bool
}

func NewRecordStore(db *DB, registry *authz.Registry) *RecordStore {
	tables := make(map[string]bool)
	for _, d := range registry.Resources() {
		tables[d.Name] = true
	}
	return &RecordStore{db: db, tables: tables}
}

func (s *RecordStore) table(resource string) (string, error) {
	if !s.tables[resource] {
		return "", fmt.Errorf(errUnknownCollectionFmt, resource)
	}
	return resource, nil
}

func (s *RecordStore) GetRecord(ctx context.Context, resource string, id uuid.UUID) (authz.Record, error) {
	table, err := s.table(resource)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", table)
	rows, err := s.db.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf(errFailedGetRecordFmt, err)
	}

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NotFound(errRecordNotFound)
	}

	return records[0], nil
}

func (s *RecordStore) FindByField(ctx context.Context, resource, field string, value uuid.UUID) ([]authz.Record, error) {
	table, err := s.table(resource)
	if err != nil {
		return nil, err
	}
	if !columnPattern.MatchString(field) {
		return nil, fmt.Errorf(errBadColumnFmt, field)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", table, field)
	rows, err := s.db.Pool.Query(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf(errFailedListRecordsFmt, err)
	}

	return scanRecords(rows)
}

func (s *RecordStore) List(ctx context.Context, resource string, filter *authz.Filter, limit, offset int) ([]authz.Record, error) {
	table, err := s.table(resource)
	if err != nil {
		return nil, err
	}

	var args []any
	aliasSeq := 0
	where, err := compileFilter(table, filter, &args, &aliasSeq)
	if err != nil {
		return nil, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s ORDER BY id LIMIT $%d OFFSET $%d",
		table, where, len(args)-1, len(args),
	)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf(errFailedListRecordsFmt, err)
	}

	return scanRecords(rows)
}

func (s *RecordStore) Insert(ctx context.Context, resource string, rec authz.Record) (authz.Record, error) {
	table, err := s.table(resource)
	if err != nil {
		return nil, err
	}

	columns, err := recordColumns(rec)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf(errFailedInsertFmt, err)
	}

	records, err := scanRecords(rows)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errRecordConflict)
		}
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf(errFailedInsertFmt, pgx.ErrNoRows)
	}

	return records[0], nil
}

func (s *RecordStore) Update(ctx context.Context, resource string, id uuid.UUID, patch authz.Record) (authz.Record, error) {
	table, err := s.table(resource)
	if err != nil {
		return nil, err
	}

	columns, err := recordColumns(patch)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, apperrors.BadRequest(errEmptyPatch)
	}

	assignments := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, patch[col])
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING *",
		table, strings.Join(assignments, ", "), len(args),
	)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf(errFailedUpdateFmt, err)
	}

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NotFound(errRecordNotFound)
	}

	return records[0], nil
}

func (s *RecordStore) Delete(ctx context.Context, resource string, id uuid.UUID) error {
	table, err := s.table(resource)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
	result, err := s.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf(errFailedDeleteFmt, err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errRecordNotFound)
	}

	return nil
}

// recordColumns returns the record's writable column names in stable
// order. Response-only fields (underscore-prefixed) are skipped.
func recordColumns(rec authz.Record) ([]string, error) {
	columns := make([]string, 0, len(rec))
	for col := range rec {
		if strings.HasPrefix(col, "_") {
			continue
		}
		if !columnPattern.MatchString(col) {
			return nil, fmt.Errorf(errBadColumnFmt, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns, nil
}

func scanRecords(rows pgx.Rows) ([]authz.Record, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var records []authz.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf(errFailedScanRecordFmt, err)
		}
		rec := make(authz.Record, len(fields))
		for i, fd := range fields {
			rec[fd.Name] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errFailedScanRecordFmt, err)
	}

	return records, nil
}
