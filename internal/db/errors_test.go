package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantMsg string
	}{
		{name: "no rows", err: pgx.ErrNoRows, wantIs: ErrNotFound, wantMsg: "get run: record not found"},
		{name: "check violation", err: &pgconn.PgError{Code: "23514", ConstraintName: "trend_runs_status_check"}, wantIs: ErrCheckViolation, wantMsg: "trend_runs_status_check"},
		{name: "not null violation", err: &pgconn.PgError{Code: "23502", ConstraintName: "payload"}, wantIs: ErrNotNullViolation, wantMsg: "not null violation"},
		{name: "unmapped pg error", err: &pgconn.PgError{Code: "23505", ConstraintName: "trend_runs_pkey"}, wantMsg: "[23505]"},
		{name: "other pg error", err: &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, wantMsg: "[42P01]"},
		{name: "plain error", err: errors.New("boom"), wantMsg: "get run: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, "get run")
			assert.Error(t, got)
			assert.Contains(t, got.Error(), tt.wantMsg)
			if tt.wantIs != nil {
				assert.ErrorIs(t, got, tt.wantIs)
			}
		})
	}

	assert.NoError(t, WrapError(nil, "noop"))
	assert.True(t, IsNotFound(WrapError(pgx.ErrNoRows, "x")))
}

func TestIsConstraintViolation(t *testing.T) {
	assert.True(t, IsConstraintViolation(WrapError(&pgconn.PgError{Code: "23514"}, "save run")))
	assert.True(t, IsConstraintViolation(WrapError(&pgconn.PgError{Code: "23502"}, "save run")))
	assert.False(t, IsConstraintViolation(WrapError(&pgconn.PgError{Code: "08006"}, "save run")))
	assert.False(t, IsConstraintViolation(WrapError(errors.New("conn reset"), "save run")))
	assert.False(t, IsConstraintViolation(nil))
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://u@host/db", "pgx5://u@host/db"},
		{"pgx5://already", "pgx5://already"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MigrateURL(tt.in))
		})
	}
}
