package domain

// DiffPair reports one modified entity as its old and new forms.
type DiffPair[T any] struct {
	Old T
	New T
}

// DiffSection is the comparison result for one entity category.
type DiffSection[T any] struct {
	Added    []T
	Removed  []T
	Modified []DiffPair[T]
}

// AddedCount returns the number of added entities.
func (s DiffSection[T]) AddedCount() int { return len(s.Added) }

// RemovedCount returns the number of removed entities.
func (s DiffSection[T]) RemovedCount() int { return len(s.Removed) }

// ModifiedCount returns the number of modified entities.
func (s DiffSection[T]) ModifiedCount() int { return len(s.Modified) }

// Empty reports whether the section contains no changes.
func (s DiffSection[T]) Empty() bool {
	return len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Modified) == 0
}

// SnapshotDiff is the category-by-category comparison of two snapshots'
// raw entities. Resolution output is never diffed, only captures.
type SnapshotDiff struct {
	FromSnapshotID string
	ToSnapshotID   string
	Users          DiffSection[User]
	Roles          DiffSection[Role]
	RoleGrants     DiffSection[RoleGrant]
	Grants         DiffSection[DirectGrant]
}
