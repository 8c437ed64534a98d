package domain

import "context"

// PostUpdateHook is invoked after a deploy has reset the checkout to the new version.
// oldVersion is nil when there was no previous checkout.
type PostUpdateHook interface {
	PostUpdate(ctx context.Context, oldVersion *Version, newVersion Version, files UpdatedFiles) error
}

// PostUpdateFunc adapts a function to PostUpdateHook.
type PostUpdateFunc func(ctx context.Context, oldVersion *Version, newVersion Version, files UpdatedFiles) error

// PostUpdate calls f.
func (f PostUpdateFunc) PostUpdate(ctx context.Context, oldVersion *Version, newVersion Version, files UpdatedFiles) error {
	return f(ctx, oldVersion, newVersion, files)
}

// Hooks runs several hooks in order and stops at the first error.
type Hooks []PostUpdateHook

// PostUpdate runs every hook.
func (h Hooks) PostUpdate(ctx context.Context, oldVersion *Version, newVersion Version, files UpdatedFiles) error {
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.PostUpdate(ctx, oldVersion, newVersion, files); err != nil {
			return err
		}
	}
	return nil
}
