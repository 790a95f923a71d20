package bitquery

import "encoding/json"

// Raw payload shapes as the provider delivers them. Field names follow the
// GraphQL schema, hence the non-Go casing in the JSON tags.

// Currency describes a token as attached to supply updates and pool markets.
type Currency struct {
	Name        string `json:"Name"`
	Symbol      string `json:"Symbol"`
	MintAddress string `json:"MintAddress"`
	URI         string `json:"Uri"`
	Decimals    int    `json:"Decimals"`
	Fungible    bool   `json:"Fungible"`
	Native      bool   `json:"Native"`
	Wrapped     bool   `json:"Wrapped"`
}

// NewTokenEvent is one element of Solana.TokenSupplyUpdates: a mint created
// through the bonding-curve program.
type NewTokenEvent struct {
	Block struct {
		Time string `json:"Time"`
	} `json:"Block"`
	Transaction struct {
		Signer string `json:"Signer"`
	} `json:"Transaction"`
	TokenSupplyUpdate struct {
		Amount      string   `json:"Amount"`
		PostBalance string   `json:"PostBalance"`
		Currency    Currency `json:"Currency"`
	} `json:"TokenSupplyUpdate"`
}

// NewTokensData is the data envelope of the new-tokens subscription and the
// matching bulk query.
type NewTokensData struct {
	Solana struct {
		TokenSupplyUpdates []NewTokenEvent `json:"TokenSupplyUpdates"`
	} `json:"Solana"`
}

// PoolEvent is one element of Solana.DEXPools: a bonding-curve pool state
// update within the near-graduation reserve window.
type PoolEvent struct {
	Block struct {
		Time string `json:"Time"`
	} `json:"Block"`
	Pool struct {
		Market struct {
			MarketAddress string   `json:"MarketAddress"`
			BaseCurrency  Currency `json:"BaseCurrency"`
			QuoteCurrency Currency `json:"QuoteCurrency"`
		} `json:"Market"`
		Dex struct {
			ProtocolName   string `json:"ProtocolName"`
			ProtocolFamily string `json:"ProtocolFamily"`
		} `json:"Dex"`
		Base struct {
			PostAmount string `json:"PostAmount"`
		} `json:"Base"`
		Quote struct {
			PostAmount      string  `json:"PostAmount"`
			PriceInUSD      float64 `json:"PriceInUSD"`
			PostAmountInUSD string  `json:"PostAmountInUSD"`
		} `json:"Quote"`
	} `json:"Pool"`
}

// PoolsData is the data envelope of the final-stretch subscription.
type PoolsData struct {
	Solana struct {
		DEXPools []PoolEvent `json:"DEXPools"`
	} `json:"Solana"`
}

// InstructionArgument is a named argument of a decoded program instruction.
// Numeric values arrive as arbitrary-precision integers.
type InstructionArgument struct {
	Name  string `json:"Name"`
	Value struct {
		Integer json.Number `json:"integer"`
		String  string      `json:"string"`
	} `json:"Value"`
}

// InstructionAccount is one account in an instruction's account list.
type InstructionAccount struct {
	Address string `json:"Address"`
	Token   struct {
		Mint      string `json:"Mint"`
		Owner     string `json:"Owner"`
		ProgramID string `json:"ProgramId"`
	} `json:"Token"`
}

// MigrationEvent is one element of Solana.Instructions: a bonding-curve
// migrate call moving liquidity into a standard pool.
type MigrationEvent struct {
	Block struct {
		Time string `json:"Time"`
	} `json:"Block"`
	Transaction struct {
		Signature string `json:"Signature"`
	} `json:"Transaction"`
	Instruction struct {
		Program struct {
			Method    string                `json:"Method"`
			Arguments []InstructionArgument `json:"Arguments"`
		} `json:"Program"`
		Accounts []InstructionAccount `json:"Accounts"`
	} `json:"Instruction"`
}

// MigrationsData is the data envelope of the migrated subscription.
type MigrationsData struct {
	Solana struct {
		Instructions []MigrationEvent `json:"Instructions"`
	} `json:"Solana"`
}
