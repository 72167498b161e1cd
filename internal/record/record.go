// Package record declares the audit and derived column names shared by the
// hook, validity, and USS query builders, along with the temporal sentinels
// used for open validity bounds.
//
// The two audit columns (LoadedAt, HashRemovedAt) are expected to be present
// on every source relation consumed by the validity builder; they are produced
// upstream by the loading process, never by this module.
package record

// Audit columns carried by every source relation.
const (
	// LoadedAt is the timestamp at which a row version was loaded.
	LoadedAt = "_record__loaded_at"

	// HashRemovedAt is the soft-delete marker: the timestamp at which the
	// row's key hash disappeared from the source extract, or NULL while the
	// row is still present.
	HashRemovedAt = "_record__hash_removed_at"
)

// Derived columns appended by the validity window builder, in output order.
const (
	ValidFrom = "_record__valid_from"
	ValidTo   = "_record__valid_to"
	Version   = "_record__version"
	IsCurrent = "_record__is_current"
	UpdatedAt = "_record__updated_at"
	UID       = "_record__uid"
)

// Temporal sentinels for open validity bounds. Both are rendered as
// fixed-precision timestamp literals.
const (
	// EpochSentinel marks a validity window with no known lower bound.
	EpochSentinel = "1970-01-01 00:00:00"

	// InfinitySentinel marks a validity window that is still open.
	InfinitySentinel = "9999-12-31 23:59:59.999999"
)

// DefaultTimeColumn is the column used for incremental time-range filtering
// when the caller does not name one explicitly.
const DefaultTimeColumn = UpdatedAt

// Derived returns the six derived column names in output order. The slice is
// freshly allocated; callers may modify it.
func Derived() []string {
	return []string{ValidFrom, ValidTo, Version, IsCurrent, UpdatedAt, UID}
}
