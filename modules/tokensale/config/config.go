package config

import (
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/internal/postgres"
)

type Config struct {
	Role     string          `mapstructure:"role"`     // Role of this node, `conductor` | `contributor`
	ChainID  common.ChainID  `mapstructure:"chain_id"` // Chain the node runs on.
	Database string          `mapstructure:"database"` // Database to store sale state, `memory` | `postgres`
	Postgres postgres.Config `mapstructure:"postgres"`

	GuardianSet GuardianSet `mapstructure:"guardian_set"`
	Quorum      int         `mapstructure:"quorum"` // 0 means more than two thirds of the guardian set.

	// Conductor is the trusted sale message emitter. Contributor role only.
	Conductor Emitter `mapstructure:"conductor"`
	// Governance is the trusted chain registration emitter. Conductor role only.
	Governance Emitter `mapstructure:"governance"`

	RemainderPolicy string   `mapstructure:"remainder_policy"` // `first_index` (default) | `largest_remainder`
	APIHandlers     []string `mapstructure:"api_handlers"`     // List of API handlers to enable. (e.g. `http`)

	// Custody moves contributed and released funds. Contributor role only.
	Custody Custody `mapstructure:"custody"`
}

type Custody struct {
	Type string `mapstructure:"type"` // `ledger` (default). The ledger is volatile and only runs with the `memory` database.
	// Balances seed buyer accounts of the ledger.
	Balances []Balance `mapstructure:"balances"`
	// Escrow seeds the escrow of a token, e.g. the sale token deposited by the organizer.
	Escrow []Escrow `mapstructure:"escrow"`
}

type Balance struct {
	Token   string `mapstructure:"token"`   // Native or 32-byte universal address on the node's chain.
	Account string `mapstructure:"account"` // Native or 32-byte universal address on the node's chain.
	Amount  string `mapstructure:"amount"`  // Decimal amount in the token's smallest unit.
}

type Escrow struct {
	Token  string `mapstructure:"token"`
	Amount string `mapstructure:"amount"`
}

type GuardianSet struct {
	Index uint32   `mapstructure:"index"`
	Keys  []string `mapstructure:"keys"` // Hex encoded compressed or uncompressed secp256k1 public keys.
}

type Emitter struct {
	ChainID common.ChainID `mapstructure:"chain_id"`
	Address string         `mapstructure:"address"` // Native or 32-byte universal address.
}
