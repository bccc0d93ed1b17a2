package common

import "strconv"

// ChainID identifies a chain in the cross-chain messaging network (wormhole numbering).
type ChainID uint16

const (
	ChainUnset     ChainID = 0
	ChainSolana    ChainID = 1
	ChainEthereum  ChainID = 2
	ChainTerra     ChainID = 3
	ChainBSC       ChainID = 4
	ChainPolygon   ChainID = 5
	ChainAvalanche ChainID = 6
	ChainAlgorand  ChainID = 8
	ChainFantom    ChainID = 10
)

var chainNames = map[ChainID]string{
	ChainSolana:    "solana",
	ChainEthereum:  "ethereum",
	ChainTerra:     "terra",
	ChainBSC:       "bsc",
	ChainPolygon:   "polygon",
	ChainAvalanche: "avalanche",
	ChainAlgorand:  "algorand",
	ChainFantom:    "fantom",
}

func (c ChainID) String() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	return "chain-" + strconv.FormatUint(uint64(c), 10)
}

// IsKnown reports whether the chain has a registered name.
func (c ChainID) IsKnown() bool {
	_, ok := chainNames[c]
	return ok
}
