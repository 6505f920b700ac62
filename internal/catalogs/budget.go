// SPDX-License-Identifier: MPL-2.0

package catalogs

import (
	"errors"
	"fmt"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/workspace"
)

// DefaultFailureLimit is the number of consecutive not-finalized passes
// after which discovery gives up on a node.
const DefaultFailureLimit = 3

// ErrCatalogsNotReady is the sentinel wrapped by NotFinalizedError.
var ErrCatalogsNotReady = errors.New("catalogs never became available")

type (
	// FailureBudget counts consecutive discovery passes per node that found
	// the settings not finalized. A successful pass resets the count.
	FailureBudget struct {
		limit  int
		misses map[workspace.IdentityPath]int
	}

	// NotFinalizedError is returned once a node exhausts its budget.
	NotFinalizedError struct {
		Build  workspace.IdentityPath
		Passes int
	}
)

// NewFailureBudget returns a budget allowing limit-1 consecutive misses.
// A limit below 1 is treated as 1.
func NewFailureBudget(limit int) *FailureBudget {
	return &FailureBudget{limit: max(limit, 1), misses: make(map[workspace.IdentityPath]int)}
}

// Error implements the error interface.
func (e *NotFinalizedError) Error() string {
	return fmt.Sprintf("build %s: settings still not finalized after %d discovery passes", e.Build, e.Passes)
}

// Unwrap returns ErrCatalogsNotReady for errors.Is() compatibility.
func (e *NotFinalizedError) Unwrap() error { return ErrCatalogsNotReady }

// Observe records the outcome of one pass for build.
func (b *FailureBudget) Observe(build workspace.IdentityPath, ready bool) error {
	if ready {
		delete(b.misses, build)
		return nil
	}
	b.misses[build]++
	if n := b.misses[build]; n >= b.limit {
		return &NotFinalizedError{Build: build, Passes: n}
	}
	return nil
}
