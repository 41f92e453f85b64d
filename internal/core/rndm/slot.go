package rndm

import (
	"time"

	"github.com/onlydustxyz/kiln-indexer/internal/core"
)

var slotHeight uint64 = 100000

func Slot() *core.Slot {
	slotHeight++

	count := uint64(400000)

	return &core.Slot{
		Height:          slotHeight,
		Spec:            "mainnet",
		BlockRoot:       Bytes(32),
		ValidatorsCount: &count,
		ScannedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func Slots(n int) (ret []*core.Slot) {
	for i := 0; i < n; i++ {
		ret = append(ret, Slot())
	}
	return ret
}
