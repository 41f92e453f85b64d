package sync_test

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlydustxyz/kiln-indexer/internal/app"
	"github.com/onlydustxyz/kiln-indexer/internal/app/sync"
	"github.com/onlydustxyz/kiln-indexer/internal/core"
)

type mockNode struct {
	mu      gosync.Mutex
	head    uint64
	headErr error
	errAt   map[uint64]error
	fetched []uint64
}

func (n *mockNode) HeadHeight(_ context.Context) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.headErr != nil {
		return 0, n.headErr
	}
	return n.head, nil
}

func (n *mockNode) EntryAt(_ context.Context, height uint64) (*core.Slot, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.fetched = append(n.fetched, height)
	if err := n.errAt[height]; err != nil {
		return nil, err
	}
	return &core.Slot{Height: height, Spec: "testnet"}, nil
}

func (n *mockNode) clearErrors() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errAt = nil
}

func (n *mockNode) fetchedHeights() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint64{}, n.fetched...)
}

type mockStore struct {
	mu      gosync.Mutex
	entries map[uint64]*core.Slot
	failAt  map[uint64]error
	delay   time.Duration

	// cancel is invoked after the insert at cancelAt lands
	cancelAt *uint64
	cancel   context.CancelFunc

	inFlight    int
	maxInFlight int
}

func newMockStore() *mockStore {
	return &mockStore{entries: map[uint64]*core.Slot{}}
}

func (s *mockStore) MaxHeight(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return 0, core.ErrNotFound
	}

	var max uint64
	for h := range s.entries {
		if h > max {
			max = h
		}
	}
	return max, nil
}

func (s *mockStore) InsertIfAbsent(_ context.Context, height uint64, entry *core.Slot) (int64, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	if err := s.failAt[height]; err != nil {
		return 0, err
	}
	if _, ok := s.entries[height]; ok {
		return 0, nil
	}
	s.entries[height] = entry

	if s.cancelAt != nil && height == *s.cancelAt {
		s.cancel()
	}
	return 1, nil
}

func (s *mockStore) heights() (ret []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h := range s.entries {
		ret = append(ret, h)
	}
	return ret
}

func (s *mockStore) get(h uint64) *core.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[h]
}

func newSyncer(t *testing.T, node *mockNode, store *mockStore, from *uint64) *sync.Service[*core.Slot] {
	s, err := sync.NewService(&app.SyncConfig[*core.Slot]{
		Name:       "test",
		Node:       node,
		Store:      store,
		FromHeight: from,
		Interval:   time.Millisecond,
	})
	require.Nil(t, err)
	return s
}

func uptr(h uint64) *uint64 { return &h }

func TestNewServiceValidatesConfig(t *testing.T) {
	node, store := &mockNode{}, newMockStore()

	_, err := sync.NewService(&app.SyncConfig[*core.Slot]{Name: "test", Node: node, Store: store})
	assert.Error(t, err)

	_, err = sync.NewService(&app.SyncConfig[*core.Slot]{Name: "test", Node: node, Store: store, Interval: -time.Second})
	assert.Error(t, err)

	_, err = sync.NewService(&app.SyncConfig[*core.Slot]{Name: "test", Store: store, Interval: time.Second})
	assert.Error(t, err)

	_, err = sync.NewService(&app.SyncConfig[*core.Slot]{Name: "test", Node: node, Interval: time.Second})
	assert.Error(t, err)
}

func TestPassColdStart(t *testing.T) {
	node := &mockNode{head: 5}
	store := newMockStore()

	head, err := newSyncer(t, node, store, nil).Pass(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, uint64(5), head)

	// every height in [0, 5], no gaps
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5}, node.fetchedHeights())
	assert.Len(t, store.heights(), 6)
}

func TestPassResumesFromStoreCursor(t *testing.T) {
	node := &mockNode{head: 45}
	store := newMockStore()
	for h := uint64(0); h <= 41; h++ {
		store.entries[h] = &core.Slot{Height: h}
	}

	head, err := newSyncer(t, node, store, nil).Pass(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, uint64(45), head)
	assert.Equal(t, []uint64{42, 43, 44, 45}, node.fetchedHeights())
}

func TestPassExplicitFromHeightWins(t *testing.T) {
	node := &mockNode{head: 105}
	store := newMockStore()
	for h := uint64(0); h <= 41; h++ {
		store.entries[h] = &core.Slot{Height: h}
	}

	s := newSyncer(t, node, store, uptr(100))

	head, err := s.Pass(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, uint64(105), head)
	assert.Equal(t, []uint64{100, 101, 102, 103, 104, 105}, node.fetchedHeights())

	// the override is one-time: the next pass resolves from the store
	node.mu.Lock()
	node.head = 107
	node.fetched = nil
	node.mu.Unlock()

	head, err = s.Pass(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, uint64(107), head)
	assert.Equal(t, []uint64{106, 107}, node.fetchedHeights())
}

func TestPassNoopWhenCaughtUp(t *testing.T) {
	node := &mockNode{head: 42}
	store := newMockStore()
	for h := uint64(0); h <= 41; h++ {
		store.entries[h] = &core.Slot{Height: h}
	}

	head, err := newSyncer(t, node, store, nil).Pass(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, uint64(42), head)
	assert.Empty(t, node.fetchedHeights())
	assert.Len(t, store.heights(), 42)
}

func TestPassPartialFailureResumes(t *testing.T) {
	node := &mockNode{
		head:  9,
		errAt: map[uint64]error{3: errors.New("node unreachable")},
	}
	store := newMockStore()

	s := newSyncer(t, node, store, nil)

	_, err := s.Pass(context.Background())
	assert.Error(t, err)
	// heights before the failure stay committed
	assert.Len(t, store.heights(), 3)

	node.clearErrors()
	node.mu.Lock()
	node.fetched = nil
	node.mu.Unlock()

	head, err := s.Pass(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, uint64(9), head)
	// resumed from the store cursor, not from 0
	assert.Equal(t, []uint64{3, 4, 5, 6, 7, 8, 9}, node.fetchedHeights())
	assert.Len(t, store.heights(), 10)
}

func TestPassNothingAtHeightAborts(t *testing.T) {
	node := &mockNode{
		head:  5,
		errAt: map[uint64]error{2: errors.Wrapf(core.ErrNothingAtHeight, "height %d", 2)},
	}
	store := newMockStore()

	_, err := newSyncer(t, node, store, nil).Pass(context.Background())
	assert.ErrorIs(t, err, core.ErrNothingAtHeight)

	// nothing written at the failed height or beyond,
	// previously written entries intact
	assert.ElementsMatch(t, []uint64{0, 1}, store.heights())
}

func TestPassPendingBlockAborts(t *testing.T) {
	node := &mockNode{
		head:  5,
		errAt: map[uint64]error{4: errors.Wrapf(core.ErrPendingBlock, "height %d", 4)},
	}
	store := newMockStore()

	_, err := newSyncer(t, node, store, nil).Pass(context.Background())
	assert.ErrorIs(t, err, core.ErrPendingBlock)
	assert.ElementsMatch(t, []uint64{0, 1, 2, 3}, store.heights())
}

func TestPassStorageFailureClassified(t *testing.T) {
	node := &mockNode{head: 5}
	store := newMockStore()
	store.failAt = map[uint64]error{2: errors.New("pg down")}

	_, err := newSyncer(t, node, store, nil).Pass(context.Background())
	assert.Error(t, err)

	var storageErr *core.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.ElementsMatch(t, []uint64{0, 1}, store.heights())
}

func TestPassDoesNotUpdateExistingEntries(t *testing.T) {
	node := &mockNode{head: 5}
	store := newMockStore()
	existing := &core.Slot{Height: 3, Spec: "already-there"}
	store.entries[3] = existing

	head, err := newSyncer(t, node, store, uptr(0)).Pass(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, uint64(5), head)

	// re-inserting height 3 was a no-op
	assert.Same(t, existing, store.get(3))
	assert.Len(t, store.heights(), 6)
}

func TestPassStopsMidRangeOnCancel(t *testing.T) {
	node := &mockNode{head: 9}
	store := newMockStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.cancelAt, store.cancel = uptr(3), cancel

	_, err := newSyncer(t, node, store, nil).Pass(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// the backfill stopped at the cancelled height, well before the head
	assert.Equal(t, []uint64{0, 1, 2, 3}, node.fetchedHeights())
	assert.Len(t, store.heights(), 4)
}

func TestRunStopsOnCancel(t *testing.T) {
	node := &mockNode{head: 3}
	store := newMockStore()

	s := newSyncer(t, node, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return len(store.heights()) == 4
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop on cancel")
	}
}

func TestRunSurvivesPassFailures(t *testing.T) {
	node := &mockNode{head: 3, headErr: errors.New("node unreachable")}
	store := newMockStore()

	s := newSyncer(t, node, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond) // a few failing passes

	node.mu.Lock()
	node.headErr = nil
	node.mu.Unlock()

	assert.Eventually(t, func() bool {
		return len(store.heights()) == 4
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestRunPassesNeverOverlap(t *testing.T) {
	node := &mockNode{head: 30}
	store := newMockStore()
	store.delay = 5 * time.Millisecond // each insert overruns the tick interval

	s := newSyncer(t, node, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_ = s.Run(ctx)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.maxInFlight)
}
