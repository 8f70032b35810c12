package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID     ID
	DatasetID ID
	// SiteKey is the external label of a group (e.g. a river gauge name)
	// before ingestion maps it to a dense integer group id.
	SiteKey ID
)

// String conversions for domain IDs
func (id RunID) String() string     { return ID(id).String() }
func (id DatasetID) String() string { return ID(id).String() }
func (k SiteKey) String() string    { return ID(k).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseSiteKey parses a string into SiteKey
func ParseSiteKey(s string) (SiteKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("site key cannot be empty")
	}
	return SiteKey(s), nil
}

// RunKind distinguishes the two validation paths a run can take.
type RunKind string

const (
	// RunCalibration is a simulate-fit-compare cycle on synthetic data.
	RunCalibration RunKind = "calibration"
	// RunCheck is a posterior predictive check against a real dataset.
	RunCheck RunKind = "check"
)
