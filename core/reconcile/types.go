package reconcile

import "iter"

// DefaultSampleSize is the number of keys of each kind a Summary lists.
const DefaultSampleSize = 20

// Side is one version of a keyed document.
type Side interface {
	// Keys yields every flat key of this version.
	Keys() iter.Seq[string]

	// Value resolves a flat key of this version.
	Value(key string) (any, bool)
}

// Status classifies a key across two versions.
type Status string

const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
)

// ReconcileResult represents one flat key across the previous and current version.
type ReconcileResult struct {
	// Key is the flat key as spelled in the document.
	Key string `json:"key"`

	// PreviousPresent indicates whether the key existed before the reload.
	PreviousPresent bool `json:"previous_present"`

	// CurrentPresent indicates whether the key exists after the reload.
	CurrentPresent bool `json:"current_present"`

	// Mismatch describes how the value differs, e.g. "type: string -> number".
	// Empty when the value is unchanged or the key is only on one side.
	Mismatch []string `json:"mismatch"`
}

// Status classifies the result.
func (r ReconcileResult) Status() Status {
	switch {
	case r.PreviousPresent && !r.CurrentPresent:
		return StatusRemoved
	case !r.PreviousPresent && r.CurrentPresent:
		return StatusAdded
	case len(r.Mismatch) > 0:
		return StatusChanged
	default:
		return StatusUnchanged
	}
}

// Summary counts the results of a reconciliation.
type Summary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`

	// The key lists hold at most the sample size given to Summarize, in key order.
	AddedKeys   []string `json:"addedKeys,omitempty"`
	RemovedKeys []string `json:"removedKeys,omitempty"`
	ChangedKeys []string `json:"changedKeys,omitempty"`
}

// HasChanges reports whether any key was added, removed or changed.
func (s Summary) HasChanges() bool {
	return s.Added+s.Removed+s.Changed > 0
}
