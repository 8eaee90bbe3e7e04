package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/claimdesk/claim-service/internal/domain"
)

// MemoryClaimRepository keeps snapshots in process. It applies the same
// version rules as the Postgres repository and is used when no DSN is set.
type MemoryClaimRepository struct {
	mu     sync.RWMutex
	claims map[string]domain.ClaimCase
}

// NewMemoryClaimRepository builds an empty repository.
func NewMemoryClaimRepository() *MemoryClaimRepository {
	return &MemoryClaimRepository{claims: make(map[string]domain.ClaimCase)}
}

func (r *MemoryClaimRepository) Create(_ context.Context, claim domain.ClaimCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.claims[claim.ClaimID]; ok {
		return &domain.ConflictError{ClaimID: claim.ClaimID, Expected: 0, Actual: existing.Version}
	}
	r.claims[claim.ClaimID] = claim.Clone()
	return nil
}

func (r *MemoryClaimRepository) Load(_ context.Context, claimID string) (domain.ClaimCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	claim, ok := r.claims[claimID]
	if !ok {
		return domain.ClaimCase{}, &domain.NotFoundError{ClaimID: claimID}
	}
	return claim.Clone(), nil
}

func (r *MemoryClaimRepository) Save(_ context.Context, claim domain.ClaimCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.claims[claim.ClaimID]
	if !ok {
		return &domain.NotFoundError{ClaimID: claim.ClaimID}
	}
	write, err := checkSave(stored, claim)
	if err != nil || !write {
		return err
	}
	r.claims[claim.ClaimID] = claim.Clone()
	return nil
}

func (r *MemoryClaimRepository) ListByPolicy(_ context.Context, policyNo string) ([]domain.ClaimCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.ClaimCase{}
	for _, claim := range r.claims {
		if claim.PolicyNo == policyNo {
			result = append(result, claim.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ClaimID < result[j].ClaimID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
