package users

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server/datastore"
	"github.com/dmitrijs2005/omniguard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rows     []datastore.Row
	readErr  error
	writeErr error
	affected int64

	created []datastore.Field
	fields  []datastore.Field
	conds   []datastore.Field
	cols    []datastore.Column
}

func (f *fakeStore) Create(_ context.Context, _ datastore.Table, fields []datastore.Field) error {
	f.created = fields
	return f.writeErr
}

func (f *fakeStore) Read(_ context.Context, _ datastore.Table, conds []datastore.Field, cols ...datastore.Column) ([]datastore.Row, error) {
	f.conds = conds
	f.cols = cols
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.rows, nil
}

func (f *fakeStore) Update(_ context.Context, _ datastore.Table, fields, conds []datastore.Field) (int64, error) {
	f.fields = fields
	f.conds = conds
	return f.affected, f.writeErr
}

func (f *fakeStore) Delete(_ context.Context, _ datastore.Table, conds []datastore.Field) (int64, error) {
	f.conds = conds
	return f.affected, f.writeErr
}

func newRepo(s Store) *StoreRepository {
	return NewStoreRepository(s, logging.NewNopLogger())
}

func TestCreateUser_WritesNameAndPasswordOnly(t *testing.T) {
	fs := &fakeStore{}
	u := &models.User{Name: "ana", Password: "enc"}

	require.NoError(t, newRepo(fs).CreateUser(context.Background(), u))
	assert.Equal(t, []datastore.Field{
		datastore.Eq(datastore.ColumnNombre, "ana"),
		datastore.Eq(datastore.ColumnPassword, "enc"),
	}, fs.created)
	assert.False(t, u.Persisted())
}

func TestCreateUser_DBError(t *testing.T) {
	fs := &fakeStore{writeErr: errors.New("db down")}

	err := newRepo(fs).CreateUser(context.Background(), &models.User{Name: "ana", Password: "enc"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListUsers_MapsRowsAndSkipsMalformed(t *testing.T) {
	fs := &fakeStore{rows: []datastore.Row{
		{"id": int64(1), "nombre": "ana", "password": "p1"},
		{"id": "2", "nombre": []byte("bob"), "password": []byte("p2")},
		{"id": int32(3), "nombre": "eva", "password": "p3"},
		{"id": 3.5, "nombre": "bad", "password": "x"},
		{"id": int64(5), "nombre": "nopass"},
	}}

	got, err := newRepo(fs).ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*models.User{
		{ID: 1, Name: "ana", Password: "p1"},
		{ID: 2, Name: "bob", Password: "p2"},
		{ID: 3, Name: "eva", Password: "p3"},
	}, got)
	assert.Empty(t, fs.conds)
	assert.Equal(t, []datastore.Column{datastore.ColumnID, datastore.ColumnNombre, datastore.ColumnPassword}, fs.cols)
}

func TestListUsers_EmptyIsNotNil(t *testing.T) {
	got, err := newRepo(&fakeStore{rows: []datastore.Row{}}).ListUsers(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListUsers_DBError(t *testing.T) {
	_, err := newRepo(&fakeStore{readErr: errors.New("db err")}).ListUsers(context.Background())
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByName(t *testing.T) {
	fs := &fakeStore{rows: []datastore.Row{{"id": int64(1), "nombre": "ana", "password": "p"}}}

	u, err := newRepo(fs).FindByName(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: 1, Name: "ana", Password: "p"}, u)
	assert.Equal(t, []datastore.Field{datastore.Eq(datastore.ColumnNombre, "ana")}, fs.conds)
}

func TestFindByName_NotFound(t *testing.T) {
	_, err := newRepo(&fakeStore{rows: []datastore.Row{}}).FindByName(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestFindByID(t *testing.T) {
	fs := &fakeStore{rows: []datastore.Row{{"id": int64(9), "nombre": "ana", "password": "p"}}}

	u, err := newRepo(fs).FindByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.ID)
	assert.Equal(t, []datastore.Field{datastore.Eq(datastore.ColumnID, int64(9))}, fs.conds)
}

func TestUpdateUser(t *testing.T) {
	fs := &fakeStore{affected: 1}
	fields := []datastore.Field{datastore.Eq(datastore.ColumnPassword, "new")}

	n, err := newRepo(fs).UpdateUser(context.Background(), "ana", fields)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, fields, fs.fields)
	assert.Equal(t, []datastore.Field{datastore.Eq(datastore.ColumnNombre, "ana")}, fs.conds)
}

func TestUpdateUser_RejectsID(t *testing.T) {
	_, err := newRepo(&fakeStore{}).UpdateUser(context.Background(), "ana",
		[]datastore.Field{datastore.Eq(datastore.ColumnID, int64(2))})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteUser(t *testing.T) {
	fs := &fakeStore{affected: 0}

	n, err := newRepo(fs).DeleteUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

// Runs the repository against a real sqlite-backed datastore.
func TestStoreRepository_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "users.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE usuario (id INTEGER PRIMARY KEY AUTOINCREMENT, nombre TEXT NOT NULL UNIQUE, password TEXT NOT NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store := datastore.New(datastore.SQLite, dsn, logging.NewNopLogger())
	repo := newRepo(store)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &models.User{Name: "ana", Password: "p1"}))
	require.NoError(t, repo.CreateUser(ctx, &models.User{Name: "bob", Password: "p2"}))

	err = repo.CreateUser(ctx, &models.User{Name: "ana", Password: "p3"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)
	var serr *datastore.StorageError
	require.ErrorAs(t, err, &serr)

	all, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	ana, err := repo.FindByName(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, ana.Persisted())
	assert.Equal(t, "p1", ana.Password)

	byID, err := repo.FindByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, ana, byID)

	n, err := repo.UpdateUser(ctx, "ana", []datastore.Field{datastore.Eq(datastore.ColumnPassword, "p9")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	bob, err := repo.FindByName(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "p2", bob.Password)

	n, err = repo.DeleteUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.DeleteUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByName(ctx, "bob")
	require.ErrorIs(t, err, common.ErrNotFound)
}
