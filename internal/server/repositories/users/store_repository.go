package users

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server/datastore"
	"github.com/dmitrijs2005/omniguard/internal/server/models"
)

// StoreRepository implements Repository over the datastore.
type StoreRepository struct {
	store  Store
	logger logging.Logger
}

// NewStoreRepository creates a new StoreRepository.
func NewStoreRepository(store Store, logger logging.Logger) *StoreRepository {
	return &StoreRepository{store: store, logger: logger.With("module", "users")}
}

// CreateUser persists name and encoded password. The id is assigned by
// storage and is not written back into user.
func (r *StoreRepository) CreateUser(ctx context.Context, user *models.User) error {
	err := r.store.Create(ctx, datastore.TableUsuario, []datastore.Field{
		datastore.Eq(datastore.ColumnNombre, user.Name),
		datastore.Eq(datastore.ColumnPassword, user.Password),
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListUsers returns every user; none yields an empty slice.
func (r *StoreRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	return r.find(ctx, nil)
}

// FindByName returns the first user whose nombre equals name exactly, or
// common.ErrNotFound.
func (r *StoreRepository) FindByName(ctx context.Context, name string) (*models.User, error) {
	return r.findOne(ctx, datastore.Eq(datastore.ColumnNombre, name))
}

// FindByID is FindByName keyed by id.
func (r *StoreRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, datastore.Eq(datastore.ColumnID, id))
}

// UpdateUser applies fields to the user called name and returns the number of
// rows changed; zero means there is no such user. The id is immutable.
func (r *StoreRepository) UpdateUser(ctx context.Context, name string, fields []datastore.Field) (int64, error) {
	for _, f := range fields {
		if f.Column == datastore.ColumnID {
			return 0, fmt.Errorf("%w: id cannot be updated", common.ErrValidation)
		}
	}

	n, err := r.store.Update(ctx, datastore.TableUsuario, fields,
		[]datastore.Field{datastore.Eq(datastore.ColumnNombre, name)})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// DeleteUser returns the number of rows removed.
func (r *StoreRepository) DeleteUser(ctx context.Context, name string) (int64, error) {
	n, err := r.store.Delete(ctx, datastore.TableUsuario,
		[]datastore.Field{datastore.Eq(datastore.ColumnNombre, name)})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *StoreRepository) findOne(ctx context.Context, cond datastore.Field) (*models.User, error) {
	found, err := r.find(ctx, []datastore.Field{cond})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, common.ErrNotFound
	}
	return found[0], nil
}

func (r *StoreRepository) find(ctx context.Context, conds []datastore.Field) ([]*models.User, error) {
	rows, err := r.store.Read(ctx, datastore.TableUsuario, conds,
		datastore.ColumnID, datastore.ColumnNombre, datastore.ColumnPassword)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	users := make([]*models.User, 0, len(rows))
	for _, row := range rows {
		u, err := rowToUser(row)
		if err != nil {
			r.logger.Warn(ctx, "skipping malformed user row", "error", err)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func rowToUser(row datastore.Row) (*models.User, error) {
	id, err := toInt64(row[string(datastore.ColumnID)])
	if err != nil {
		return nil, fmt.Errorf("column id: %w", err)
	}
	name, err := toString(row[string(datastore.ColumnNombre)])
	if err != nil {
		return nil, fmt.Errorf("column nombre: %w", err)
	}
	password, err := toString(row[string(datastore.ColumnPassword)])
	if err != nil {
		return nil, fmt.Errorf("column password: %w", err)
	}
	return &models.User{ID: id, Name: name, Password: password}, nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	case nil:
		return 0, fmt.Errorf("missing value")
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case nil:
		return "", fmt.Errorf("missing value")
	}
	return "", fmt.Errorf("unexpected type %T", v)
}
