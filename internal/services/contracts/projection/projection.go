// Package projection derives read-only views over contract collections.
// Every function returns a new slice and leaves its input untouched.
package projection

import (
	"slices"
	"strings"

	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
)

// Bucket is a coarse status grouping used by list views.
type Bucket string

const (
	BucketAll       Bucket = "all"
	BucketActive    Bucket = "active"
	BucketPending   Bucket = "pending"
	BucketCompleted Bucket = "completed"
	BucketRevoked   Bucket = "revoked"
)

var bucketStatuses = map[Bucket][]contract.Status{
	BucketActive:    {contract.StatusCreated, contract.StatusApproved, contract.StatusSent, contract.StatusSigned},
	BucketPending:   {contract.StatusCreated, contract.StatusApproved, contract.StatusSent},
	BucketCompleted: {contract.StatusSigned, contract.StatusLocked},
	BucketRevoked:   {contract.StatusRevoked},
}

// Buckets lists the buckets in tab order.
func Buckets() []Bucket {
	return []Bucket{BucketAll, BucketActive, BucketPending, BucketCompleted, BucketRevoked}
}

// ParseBucket canonicalizes a bucket name. Empty selects BucketAll.
func ParseBucket(value string) (Bucket, bool) {
	bucket := Bucket(strings.ToLower(strings.TrimSpace(value)))
	if bucket == "" {
		return BucketAll, true
	}
	if bucket == BucketAll {
		return bucket, true
	}
	_, ok := bucketStatuses[bucket]
	return bucket, ok
}

// InBucket reports whether status belongs to bucket.
func InBucket(status contract.Status, bucket Bucket) bool {
	if bucket == BucketAll {
		return true
	}
	return slices.Contains(bucketStatuses[bucket], status)
}

// FilterByStatus keeps contracts whose status equals status.
func FilterByStatus(contracts []contract.Contract, status contract.Status) []contract.Contract {
	return filter(contracts, func(c contract.Contract) bool { return c.Status == status })
}

// FilterByBlueprint keeps contracts created from blueprintID.
func FilterByBlueprint(contracts []contract.Contract, blueprintID string) []contract.Contract {
	return filter(contracts, func(c contract.Contract) bool { return c.BlueprintID == blueprintID })
}

// FilterByBucket keeps contracts whose status is in bucket.
func FilterByBucket(contracts []contract.Contract, bucket Bucket) []contract.Contract {
	return filter(contracts, func(c contract.Contract) bool { return InBucket(c.Status, bucket) })
}

// SortRecent orders contracts by CreatedAt, newest first. Equal timestamps
// keep their collection order.
func SortRecent(contracts []contract.Contract) []contract.Contract {
	out := slices.Clone(contracts)
	slices.SortStableFunc(out, func(a, b contract.Contract) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Recent returns the n most recently created contracts.
func Recent(contracts []contract.Contract, n int) []contract.Contract {
	out := SortRecent(contracts)
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func filter(contracts []contract.Contract, keep func(contract.Contract) bool) []contract.Contract {
	out := make([]contract.Contract, 0, len(contracts))
	for _, c := range contracts {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
