package parcelrepo

import "fmt"

// LastSavepoint names the savepoint taken by the most recent transactional Add.
func LastSavepoint() string {
	return fmt.Sprintf("parcel_insert_%d", savepointSeq.Load())
}
