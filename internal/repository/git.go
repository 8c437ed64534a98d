package repository

import "context"

// LocalRepository is the in-process view of the repository a release is cut from.

type LocalRepository interface {
	ShortHead(ctx context.Context) (string, error)
	TagExists(ctx context.Context, tag string) (bool, error)
	CreateTag(ctx context.Context, tag string) error
}
