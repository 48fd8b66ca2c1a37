// Package catalog provides read access to the transaction-code catalog:
// identifiers, descriptions, module codes, user feedback votes, and the
// country alias table. The catalog is owned by an external importer; the
// search pipeline only reads it.
package catalog

import (
	"context"
)

// Entry is one catalog row: a transaction code with its description and
// module assignment.
type Entry struct {
	// Code is the unique transaction code (e.g., "ME21N").
	Code string `json:"code"`

	// Description is the human-readable purpose (e.g., "Create Purchase Order").
	Description string `json:"description"`

	// Module is the owning application module code (e.g., "MM"). Optional.
	Module string `json:"module"`

	// Deprecated marks codes that should not be proposed.
	Deprecated bool `json:"deprecated"`
}

// Locale is one row of the country alias reference table.
type Locale struct {
	// Code is the country key (e.g., "US").
	Code string `json:"code"`

	// Name is the canonical country name (e.g., "United States").
	Name string `json:"name"`

	// ISOCode is the two-letter ISO 3166-1 code.
	ISOCode string `json:"iso_code"`

	// Aliases are alternative names and abbreviations ("USA", "America").
	Aliases []string `json:"aliases"`
}

// VoteCount aggregates feedback votes for one transaction code.
type VoteCount struct {
	Code      string `json:"code"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
}

// Net returns upvotes minus downvotes.
func (v VoteCount) Net() int {
	return v.Upvotes - v.Downvotes
}

// Total returns the total number of votes cast.
func (v VoteCount) Total() int {
	return v.Upvotes + v.Downvotes
}

// Store is the catalog read interface consumed by the pipeline.
// All lookups exclude deprecated entries unless stated otherwise.
type Store interface {
	// FindExact returns the entry whose code equals the query
	// (case-insensitive), or nil when absent.
	FindExact(ctx context.Context, code string) (*Entry, error)

	// FindByPrefix returns entries whose code starts with the prefix
	// (case-insensitive), up to limit.
	FindByPrefix(ctx context.Context, prefix string, limit int) ([]*Entry, error)

	// FindBySubstring returns entries whose code contains the fragment
	// (case-insensitive), up to limit.
	FindBySubstring(ctx context.Context, fragment string, limit int) ([]*Entry, error)

	// FindByIn returns the non-deprecated entries among the given codes.
	FindByIn(ctx context.Context, codes []string) ([]*Entry, error)

	// ListAll streams every non-deprecated entry, for index building.
	ListAll(ctx context.Context) ([]*Entry, error)
}

// FeedbackStore aggregates user votes per transaction code.
type FeedbackStore interface {
	// SumVotes returns vote totals grouped by code for the given codes.
	// Codes with no votes are absent from the result.
	SumVotes(ctx context.Context, codes []string) (map[string]VoteCount, error)
}

// LocaleStore serves the country alias reference table.
type LocaleStore interface {
	// ListLocales returns the full alias table.
	ListLocales(ctx context.Context) ([]Locale, error)
}
