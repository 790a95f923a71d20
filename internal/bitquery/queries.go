package bitquery

import "fmt"

// GraphQL documents for the three feed subscriptions and their one-time
// snapshot counterparts. The subscription documents are sent inside start
// frames; the snapshot documents go through the HTTP query endpoint at mount
// time to fill the gap before the socket delivers anything.

const newTokensSubscription = `
subscription {
  Solana {
    TokenSupplyUpdates(
      where: {Instruction: {Program: {Address: {is: "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"}, Method: {is: "create"}}}}
    ) {
      Block { Time }
      Transaction { Signer }
      TokenSupplyUpdate {
        Amount
        PostBalance
        Currency {
          Name
          Symbol
          MintAddress
          Uri
          Decimals
          Fungible
          Native
          Wrapped
        }
      }
    }
  }
}`

const finalStretchSubscription = `
subscription {
  Solana {
    DEXPools(
      where: {Pool: {Dex: {ProgramAddress: {is: "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"}}, Base: {PostAmount: {gt: "206900000", lt: "246555000"}}}}
    ) {
      Block { Time }
      Pool {
        Market {
          MarketAddress
          BaseCurrency { Name Symbol MintAddress Uri Decimals }
          QuoteCurrency { Name Symbol MintAddress }
        }
        Dex { ProtocolName ProtocolFamily }
        Base { PostAmount }
        Quote { PostAmount PriceInUSD PostAmountInUSD }
      }
    }
  }
}`

const migratedSubscription = `
subscription {
  Solana {
    Instructions(
      where: {Instruction: {Program: {Address: {is: "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"}, Method: {is: "migrate"}}}}
    ) {
      Block { Time }
      Transaction { Signature }
      Instruction {
        Program {
          Method
          Arguments {
            Name
            Value {
              ... on Solana_ABI_Integer_Value_Arg { integer }
              ... on Solana_ABI_String_Value_Arg { string }
            }
          }
        }
        Accounts {
          Address
          Token { Mint Owner ProgramId }
        }
      }
    }
  }
}`

// Snapshot variants: same selection, bounded and ordered newest-first.

func newTokensQuery(limit int) string {
	return fmt.Sprintf(`
query {
  Solana {
    TokenSupplyUpdates(
      limit: {count: %d}
      orderBy: {descending: Block_Time}
      where: {Instruction: {Program: {Address: {is: "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"}, Method: {is: "create"}}}}
    ) {
      Block { Time }
      Transaction { Signer }
      TokenSupplyUpdate {
        Amount
        PostBalance
        Currency {
          Name
          Symbol
          MintAddress
          Uri
          Decimals
          Fungible
          Native
          Wrapped
        }
      }
    }
  }
}`, limit)
}

func finalStretchQuery(limit int) string {
	return fmt.Sprintf(`
query {
  Solana {
    DEXPools(
      limit: {count: %d}
      orderBy: {descending: Block_Time}
      where: {Pool: {Dex: {ProgramAddress: {is: "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"}}, Base: {PostAmount: {gt: "206900000", lt: "246555000"}}}}
    ) {
      Block { Time }
      Pool {
        Market {
          MarketAddress
          BaseCurrency { Name Symbol MintAddress Uri Decimals }
          QuoteCurrency { Name Symbol MintAddress }
        }
        Dex { ProtocolName ProtocolFamily }
        Base { PostAmount }
        Quote { PostAmount PriceInUSD PostAmountInUSD }
      }
    }
  }
}`, limit)
}

func migratedQuery(limit int) string {
	return fmt.Sprintf(`
query {
  Solana {
    Instructions(
      limit: {count: %d}
      orderBy: {descending: Block_Time}
      where: {Instruction: {Program: {Address: {is: "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"}, Method: {is: "migrate"}}}}
    ) {
      Block { Time }
      Transaction { Signature }
      Instruction {
        Program {
          Method
          Arguments {
            Name
            Value {
              ... on Solana_ABI_Integer_Value_Arg { integer }
              ... on Solana_ABI_String_Value_Arg { string }
            }
          }
        }
        Accounts {
          Address
          Token { Mint Owner ProgramId }
        }
      }
    }
  }
}`, limit)
}

// SubscriptionFor returns the subscription document for a subscription id,
// or "" for an unknown id.
func SubscriptionFor(subID string) string {
	switch subID {
	case SubIDNewTokens:
		return newTokensSubscription
	case SubIDFinalStretch:
		return finalStretchSubscription
	case SubIDMigrated:
		return migratedSubscription
	}
	return ""
}
