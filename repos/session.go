package repos

import (
	"github.com/alexedwards/scs/v2"
)

type SessionRepository interface {
	scs.Store
	scs.CtxStore
}
