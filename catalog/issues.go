// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import "fmt"

// IssueKind classifies a data quality problem found at load time.
type IssueKind int

const (
	// IssueDuplicate is a repeated (context, source, disambiguation) key
	// carrying the same translation as the first occurrence.
	IssueDuplicate IssueKind = iota

	// IssueConflictingDuplicate is a repeated key whose translation differs
	// from the first occurrence. The first occurrence is used.
	IssueConflictingDuplicate

	// IssuePluralFormCountMismatch is a numerus message with a number of forms
	// that differs from the plural rule. Lookups treat it as missing.
	IssuePluralFormCountMismatch

	// IssueDuplicateID is a message id used more than once.
	IssueDuplicateID
)

func (k IssueKind) String() string {
	switch k {
	case IssueDuplicate:
		return "duplicate"
	case IssueConflictingDuplicate:
		return "conflicting duplicate"
	case IssuePluralFormCountMismatch:
		return "plural form count mismatch"
	case IssueDuplicateID:
		return "duplicate id"
	}

	return fmt.Sprintf("IssueKind(%d)", int(k))
}

// Issue is a data quality problem that does not prevent loading.
type Issue struct {
	Kind           IssueKind
	Context        string
	Source         string
	Disambiguation string
	Detail         string
}

func (is Issue) String() string {
	s := fmt.Sprintf("%s: %s: %q", is.Kind, is.Context, is.Source)

	if is.Disambiguation != "" {
		s += fmt.Sprintf(" (%s)", is.Disambiguation)
	}

	if is.Detail != "" {
		s += ": " + is.Detail
	}

	return s
}
