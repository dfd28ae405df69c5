package params

import "github.com/ethereum/go-ethereum/common"

const (
	// ChainID as reported by eth_chainId: "BRC20" in ASCII.
	ChainID = "0x4252433230"

	// BlockGasLimit fills the gas limit field of assembled blocks.
	BlockGasLimit = uint64(36_000_000)

	// BlockDifficulty - no PoW on this chain.
	BlockDifficulty = uint64(0)

	// GetLogsRangeLimit caps eth_getLogs scans; the store is behind a
	// process-wide lock and an unbounded scan would stall every caller.
	GetLogsRangeLimit = uint64(5)
)

// DevAddress is the indexer's account, the only entry of eth_accounts.
var DevAddress = common.HexToAddress("0xdeadDe9Ff871a968a42180688D964ECDa0Dbbeef")
