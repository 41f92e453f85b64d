package rndm

import (
	"encoding/hex"
	"math/rand"
)

func Bytes(n int) []byte {
	ret := make([]byte, n)
	_, _ = rand.Read(ret) //nolint:gosec // test data
	return ret
}

// Address returns a random 0x-prefixed lowercase hex address.
func Address() string {
	return "0x" + hex.EncodeToString(Bytes(20))
}
