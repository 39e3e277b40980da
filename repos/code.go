package repos

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// GenericCodeModel is a pre-printed, initially unclaimed tag code. It
// transitions from claimed=false to claimed=true exactly once.
type GenericCodeModel struct {
	ID        string
	CreatedAt time.Time
	Claimed   bool
	ClaimedAt *time.Time
	ClaimedBy *ulid.ULID
}

type CodeRepository interface {
	Find(ctx context.Context, code string) (*GenericCodeModel, error)
	Exists(ctx context.Context, code string) (bool, error)
	// CreateBatch inserts all codes in a single transaction. Either every code
	// becomes visible or none does.
	CreateBatch(ctx context.Context, codes []string) error
	// Claim marks the code as claimed by userID and creates the pet row in the
	// same transaction. The update is conditional on claimed=false: if another
	// claimant won the race (or the code does not exist), no row is affected
	// and ErrNoRecord is returned without creating the pet.
	Claim(ctx context.Context, code string, userID ulid.ULID, at time.Time, pet *PetModel) error
	CountUnclaimed(ctx context.Context) (int, error)
}
