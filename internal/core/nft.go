package core

import (
	"github.com/goccy/go-json"
	"github.com/iancoleman/strcase"
)

// PackedNftTypes packs the NFT types an address is eligible to mint
// into a single bit field.
type PackedNftTypes uint8

const (
	NftDoOneTransaction PackedNftTypes = 1 << iota
	NftDoHundredTransactions
	NftDeployContract
	NftDeployTenContracts
	NftDeployFiftyContracts
	NftTenCallsToTenContracts
)

var nftNames = map[PackedNftTypes]string{
	NftDoOneTransaction:       "DoOneTransaction",
	NftDoHundredTransactions:  "DoHundredTransactions",
	NftDeployContract:         "DeployContract",
	NftDeployTenContracts:     "DeployTenContracts",
	NftDeployFiftyContracts:   "DeployFiftyContracts",
	NftTenCallsToTenContracts: "TenCallsToTenContracts",
}

func (p *PackedNftTypes) Set(flag PackedNftTypes) {
	*p |= flag
}

func (p PackedNftTypes) Has(flag PackedNftTypes) bool {
	return p&flag != 0
}

// Names returns the snake_case names of every set flag, lowest bit first.
func (p PackedNftTypes) Names() []string {
	ret := []string{}
	for flag := NftDoOneTransaction; flag <= NftTenCallsToTenContracts; flag <<= 1 {
		if p.Has(flag) {
			ret = append(ret, strcase.ToSnake(nftNames[flag]))
		}
	}
	return ret
}

func (p PackedNftTypes) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Packed uint8    `json:"packed"`
		Nfts   []string `json:"nfts"`
	}{
		Packed: uint8(p),
		Nfts:   p.Names(),
	})
}
