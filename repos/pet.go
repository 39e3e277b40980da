package repos

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// PetModel is an owned resource. Its ID is an 8-character tag code and shares
// the code space with GenericCodeModel: a string exists in at most one of the
// two tables.
type PetModel struct {
	ID        string
	CreatedAt time.Time
	OwnerID   ulid.ULID
	Name      string
}

type PetRepository interface {
	Find(ctx context.Context, code string) (*PetModel, error)
	FindByOwner(ctx context.Context, ownerID ulid.ULID) ([]*PetModel, error)
	Exists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, pet *PetModel) error
	Delete(ctx context.Context, code string, ownerID ulid.ULID) error
}
