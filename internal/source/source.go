// Package source defines the pull-side contract: strategies that deliver raw
// review pages per (entity, page) and a registry to select one by name.
package source

import (
	"context"
	"fmt"

	"ReviewScanner/internal/domain"
)

// RawRecord is the record shape delivered by upstream providers before it is
// validated into a domain review.
type RawRecord struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Rating       *float64 `json:"rating"`
	Title        string   `json:"title"`
	Body         string   `json:"review"`
	Verified     bool     `json:"verified_purchase"`
	HelpfulVotes int      `json:"helpful_votes"`
}

// Page is one raw page result; an empty Records slice signals "no more pages".
type Page struct {
	Records []RawRecord `json:"reviews"`
}

// ToDomain binds a raw record to its entity.
func (r RawRecord) ToDomain(entityID string) domain.Review {
	return domain.Review{
		EntityID:     entityID,
		RecordID:     r.ID,
		TimestampRaw: r.Date,
		Rating:       r.Rating,
		Title:        r.Title,
		Body:         r.Body,
		Verified:     r.Verified,
		HelpfulVotes: r.HelpfulVotes,
	}
}

// Strategy is a named review source implementation.
type Strategy interface {
	Name() string
	FetchPage(ctx context.Context, entityID string, page int) ([]domain.Review, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(s Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[s.Name()] = s
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if s, ok := r.strategies[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("source strategy %s is not registered", name)
}
