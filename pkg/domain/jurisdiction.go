package domain

import "strings"

// Jurisdiction is a domain value scoping a credential enrollment or cohort
// to a regulatory region. The empty value denotes the cross-jurisdiction
// ("ALL") aggregate.
//
// Invariant: stored values are upper-cased, trimmed region codes. Construct
// via ParseJurisdiction at trust boundaries.
type Jurisdiction string

// JurisdictionAll is the partition key for aggregates spanning every
// jurisdiction.
const JurisdictionAll Jurisdiction = ""

// ParseJurisdiction normalizes a caller-supplied jurisdiction label.
// "ALL" and the empty string both map to the aggregate key.
func ParseJurisdiction(s string) Jurisdiction {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "ALL" {
		return JurisdictionAll
	}
	return Jurisdiction(s)
}

// IsAll reports whether this is the cross-jurisdiction aggregate key.
func (j Jurisdiction) IsAll() bool { return j == JurisdictionAll }

// Label returns the user-facing form: "ALL" for the aggregate key.
func (j Jurisdiction) Label() string {
	if j.IsAll() {
		return "ALL"
	}
	return string(j)
}

func (j Jurisdiction) String() string { return string(j) }

// Period is an opaque cohort partition label (e.g. "2026-Q1"). The engine
// never interprets its internal structure.
type Period string

func (p Period) String() string { return string(p) }
func (p Period) IsZero() bool   { return p == "" }
