package ai

// tokensSchemaDescription describes the ClickHouse schema used for NL→SQL prompting.
//
// Keeping it in sync with the actual ClickHouse table definition in init.sql.
const tokensSchemaDescription = `
Database: pulse
Table: tokens

Columns:
  - mint_address   String    -- Token mint address (unique per launch event)
  - name           String    -- Token name
  - symbol         String    -- Token ticker symbol
  - category       String    -- Feed category: "new-pairs", "final-stretch" or "migrated"
  - price          Float64   -- Token price in USD at event time (0 when unknown)
  - change_percent Float64   -- Price change percent at event time
  - curve_progress Float64   -- Bonding curve completion percent, 0 outside final-stretch
  - tags           Array(String) -- Labels such as "Pump" or the DEX protocol name
  - uri            String    -- Off-chain metadata URI
  - event_time     DateTime  -- Block time of the source event (UTC)

Notes:
  - Each row is one accepted feed event; a mint can appear once per category.
  - Time filters should use event_time, e.g. event_time >= now() - INTERVAL 24 HOUR.
  - To count launches per category, GROUP BY category.
`
