package datastore

import (
	"testing"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInsert(t *testing.T) {
	fields := []Field{Eq(ColumnNombre, "ana"), Eq(ColumnPassword, "x")}

	q, args, err := buildInsert(Postgres, TableUsuario, fields)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "usuario" ("nombre", "password") VALUES ($1, $2)`, q)
	assert.Equal(t, []any{"ana", "x"}, args)

	q, _, err = buildInsert(SQLite, TableUsuario, fields)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "usuario" ("nombre", "password") VALUES (?, ?)`, q)
}

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name  string
		conds []Field
		cols  []Column
		want  string
		args  []any
	}{
		{name: "all", want: `SELECT * FROM "usuario"`},
		{
			name:  "by name",
			conds: []Field{Eq(ColumnNombre, "ana")},
			want:  `SELECT * FROM "usuario" WHERE "nombre" = $1`,
			args:  []any{"ana"},
		},
		{
			name:  "projection and two conditions",
			conds: []Field{Eq(ColumnNombre, "ana"), Eq(ColumnID, int64(3))},
			cols:  []Column{ColumnID, ColumnNombre},
			want:  `SELECT "id", "nombre" FROM "usuario" WHERE "nombre" = $1 AND "id" = $2`,
			args:  []any{"ana", int64(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args, err := buildSelect(Postgres, TableUsuario, tt.conds, tt.cols)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBuildUpdate_SetValuesBindBeforeConditions(t *testing.T) {
	q, args, err := buildUpdate(Postgres, TableUsuario,
		[]Field{Eq(ColumnPassword, "new")},
		[]Field{Eq(ColumnNombre, "ana")})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "usuario" SET "password" = $1 WHERE "nombre" = $2`, q)
	assert.Equal(t, []any{"new", "ana"}, args)
}

func TestBuildDelete(t *testing.T) {
	q, args, err := buildDelete(SQLite, TableUsuario, []Field{Eq(ColumnNombre, "ana")})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "usuario" WHERE "nombre" = ?`, q)
	assert.Equal(t, []any{"ana"}, args)
}

func TestBuilders_RejectBadInput(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"unknown table", func() error {
			_, _, err := buildSelect(Postgres, Table("users; drop"), nil, nil)
			return err
		}},
		{"unknown column", func() error {
			_, _, err := buildInsert(Postgres, TableUsuario, []Field{Eq(Column("salt"), "x")})
			return err
		}},
		{"unknown condition column", func() error {
			_, _, err := buildDelete(Postgres, TableUsuario, []Field{Eq(Column("1=1 OR x"), 1)})
			return err
		}},
		{"empty insert", func() error {
			_, _, err := buildInsert(Postgres, TableUsuario, nil)
			return err
		}},
		{"duplicate column", func() error {
			_, _, err := buildInsert(Postgres, TableUsuario, []Field{Eq(ColumnNombre, "a"), Eq(ColumnNombre, "b")})
			return err
		}},
		{"update without conditions", func() error {
			_, _, err := buildUpdate(Postgres, TableUsuario, []Field{Eq(ColumnPassword, "x")}, nil)
			return err
		}},
		{"update without fields", func() error {
			_, _, err := buildUpdate(Postgres, TableUsuario, nil, []Field{Eq(ColumnNombre, "a")})
			return err
		}},
		{"delete without conditions", func() error {
			_, _, err := buildDelete(Postgres, TableUsuario, nil)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.fn(), common.ErrValidation)
		})
	}
}

func TestDialectByName(t *testing.T) {
	for _, name := range []string{"postgres", "PostgreSQL", "pgx"} {
		d, err := DialectByName(name)
		require.NoError(t, err)
		assert.Equal(t, "pgx", d.Driver)
	}
	for _, name := range []string{"sqlite", "sqlite3"} {
		d, err := DialectByName(name)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Driver)
	}
	_, err := DialectByName("mysql")
	require.Error(t, err)
}
