// Package users maps rows of the usuario table to models.User on top of the
// datastore. It holds no SQL of its own.
package users

import (
	"context"

	"github.com/dmitrijs2005/omniguard/internal/server/datastore"
	"github.com/dmitrijs2005/omniguard/internal/server/models"
)

type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	FindByName(ctx context.Context, name string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, name string, fields []datastore.Field) (int64, error)
	DeleteUser(ctx context.Context, name string) (int64, error)
}

// Store is the part of datastore.Store the repository relies on.
type Store interface {
	Create(ctx context.Context, t datastore.Table, fields []datastore.Field) error
	Read(ctx context.Context, t datastore.Table, conds []datastore.Field, cols ...datastore.Column) ([]datastore.Row, error)
	Update(ctx context.Context, t datastore.Table, fields, conds []datastore.Field) (int64, error)
	Delete(ctx context.Context, t datastore.Table, conds []datastore.Field) (int64, error)
}
