package accessevent

import "context"

type Repository interface {
	Save(ctx context.Context, event AccessEvent) error
}
