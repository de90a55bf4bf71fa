// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decision

import (
	"errors"
	"fmt"

	"github.com/pdiddy/match-engine/pkg/types"
)

// ErrNotFound is returned when a referenced conflict or exclusion does not
// exist, typically because it was already resolved or removed.
var ErrNotFound = errors.New("decision: not found")

// ConflictError reports a Record call refused because it would have
// violated the one-to-one invariant. The store has already written the
// corresponding MatchingConflict row; no decision row was touched.
type ConflictError struct {
	// ConflictID is the id of the conflict row created for this attempt.
	ConflictID int64

	// Type says which side collided.
	Type types.ConflictType

	// ExistingDecisionID is the active decision that blocked the write.
	ExistingDecisionID int64

	// SellID and BuyID identify the attempted pair.
	SellID string
	BuyID  string

	// Message describes the collision.
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("decision: conflict %d (%s): %s", e.ConflictID, e.Type, e.Message)
}

// AsConflict unwraps a ConflictError from err, or returns nil.
func AsConflict(err error) *ConflictError {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}
