package payments

import (
	"errors"
	"sync"
	"time"
)

var ErrTxNotFound = errors.New("transaction not found")

type Transaction struct {
	TxRef       string    `json:"tx_ref"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Status      string    `json:"status"` // pending | successful | failed | cancelled
	PaymentLink string    `json:"payment_link"`
	CreatedAt   time.Time `json:"created_at"`
}

// TxStore keeps in-flight transaction bookkeeping in memory. It does not
// survive restarts; verification always re-asks the gateway.
type TxStore struct {
	sync.RWMutex
	txs map[string]*Transaction
}

func NewTxStore() *TxStore {
	return &TxStore{txs: make(map[string]*Transaction)}
}

func (s *TxStore) Put(tx *Transaction) {
	s.Lock()
	defer s.Unlock()
	s.txs[tx.TxRef] = tx
}

func (s *TxStore) Get(txRef string) (*Transaction, error) {
	s.RLock()
	defer s.RUnlock()

	tx, ok := s.txs[txRef]
	if !ok {
		return nil, ErrTxNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *TxStore) SetStatus(txRef, status string) error {
	s.Lock()
	defer s.Unlock()

	tx, ok := s.txs[txRef]
	if !ok {
		return ErrTxNotFound
	}
	tx.Status = status
	return nil
}

// Len returns the number of tracked transactions, for expvar.
func (s *TxStore) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.txs)
}
