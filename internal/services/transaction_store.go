package services

import (
	"sort"
	"sync"

	"autobuy_panel_echo/internal/models"
)

// ClaimOutcome is the result of trying to take the provisioning slot of a transaction
type ClaimOutcome int

const (
	// ClaimAcquired means the caller must provision and then release the claim
	ClaimAcquired ClaimOutcome = iota
	// ClaimAlreadyProvisioned means provisioning has completed before
	ClaimAlreadyProvisioned
	// ClaimInFlight means another caller is provisioning right now
	ClaimInFlight
	// ClaimMissing means the transaction is no longer in the store
	ClaimMissing
)

type storedTransaction struct {
	tx           models.Transaction
	provisioning bool
}

// TransactionStore is the in-memory registry of in-flight purchases keyed by transaction id.
// Contents are lost on restart.
type TransactionStore struct {
	mu    sync.Mutex
	items map[string]*storedTransaction
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{items: make(map[string]*storedTransaction)}
}

// Insert adds a new transaction, refusing an id that is already present
func (s *TransactionStore) Insert(tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[tx.ID]; exists {
		return ErrDuplicateID
	}
	s.items[tx.ID] = &storedTransaction{tx: tx}
	return nil
}

// Set stores tx, replacing any entry with the same id. An in-flight claim is kept.
func (s *TransactionStore) Set(tx models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[tx.ID]; ok {
		item.tx = tx
		return
	}
	s.items[tx.ID] = &storedTransaction{tx: tx}
}

// Get returns a copy of the transaction with id
func (s *TransactionStore) Get(id string) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return models.Transaction{}, false
	}
	return item.tx, true
}

// Update applies fn to the stored transaction and returns the updated copy
func (s *TransactionStore) Update(id string, fn func(tx *models.Transaction)) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return models.Transaction{}, false
	}
	fn(&item.tx)
	item.tx.ID = id
	return item.tx, true
}

// Delete removes the transaction and returns what was stored
func (s *TransactionStore) Delete(id string) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return models.Transaction{}, false
	}
	delete(s.items, id)
	return item.tx, true
}

// DeleteFunc removes every transaction for which pred returns true
func (s *TransactionStore) DeleteFunc(pred func(tx models.Transaction) bool) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []models.Transaction
	for id, item := range s.items {
		if pred(item.tx) {
			removed = append(removed, item.tx)
			delete(s.items, id)
		}
	}
	return removed
}

// Range calls fn on a snapshot of every transaction until fn returns false
func (s *TransactionStore) Range(fn func(tx models.Transaction) bool) {
	for _, tx := range s.Snapshot() {
		if !fn(tx) {
			return
		}
	}
}

// Snapshot returns copies of all transactions, oldest first
func (s *TransactionStore) Snapshot() []models.Transaction {
	s.mu.Lock()
	out := make([]models.Transaction, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.tx)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *TransactionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// ClaimProvisioning is a compare-and-set on the provisioning slot of id.
// Only a ClaimAcquired caller may provision, and it must call ReleaseProvisioning afterwards.
func (s *TransactionStore) ClaimProvisioning(id string) (models.Transaction, ClaimOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	switch {
	case !ok:
		return models.Transaction{}, ClaimMissing
	case item.tx.Provisioned:
		return item.tx, ClaimAlreadyProvisioned
	case item.provisioning:
		return item.tx, ClaimInFlight
	}
	item.provisioning = true
	return item.tx, ClaimAcquired
}

// ReleaseProvisioning ends a claim. On success the transaction is marked provisioned.
// The returned copy is the stored value, or false when the entry was removed meanwhile.
func (s *TransactionStore) ReleaseProvisioning(id string, succeeded bool) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return models.Transaction{}, false
	}
	item.provisioning = false
	if succeeded {
		item.tx.Provisioned = true
	}
	return item.tx, true
}
