package core

// Statistics describes how far the store is synced.
type Statistics struct {
	LastSlotHeight  *uint64 `json:"last_slot_height,omitempty"`
	LastBlockHeight *uint64 `json:"last_block_height,omitempty"`

	TransactionsTotal int64 `json:"transactions_total"`
}
