package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/c2h5oh/datasize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ledgerwatch/lmdb-go/lmdb"
	"github.com/spf13/cobra"

	"github.com/ledgerwatch/brc20-state/common/dbutils"
	"github.com/ledgerwatch/brc20-state/core/state"
	"github.com/ledgerwatch/brc20-state/ethdb"
)

var (
	datadir string
	mapSize string
)

func main() {
	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(os.Stderr, log.TerminalFormat(true))))

	rootCmd := &cobra.Command{
		Use:   "brc20-state",
		Short: "inspect a brc20-state data directory",
	}
	rootCmd.PersistentFlags().StringVar(&datadir, "datadir", "", "path to the state store directory")
	rootCmd.PersistentFlags().StringVar(&mapSize, "mapsize", ethdb.DefaultMapSize.String(), "lmdb map size")
	if err := rootCmd.MarkPersistentFlagRequired("datadir"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(statsCmd(), headCmd(), blockCmd(), logsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func openOptions() (ethdb.Options, error) {
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(mapSize)); err != nil {
		return ethdb.Options{}, fmt.Errorf("bad --mapsize: %w", err)
	}
	return ethdb.Options{Path: datadir, MapSize: size}, nil
}

func openDB() (*state.DB, error) {
	opts, err := openOptions()
	if err != nil {
		return nil, err
	}
	return state.Open(opts)
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "per-bucket entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := openOptions()
			if err != nil {
				return err
			}
			env, err := ethdb.Open(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			fmt.Printf("bucket,entries\n")
			return env.View(func(tx *lmdb.Txn) error {
				for _, bucket := range dbutils.Buckets {
					st, statErr := tx.Stat(env.DBI(bucket))
					if statErr != nil {
						return statErr
					}
					fmt.Printf("%s,%d\n", bucket, st.Entries)
				}
				return nil
			})
		},
	}
}

func headCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "head",
		Short: "print the latest block height and hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			height, err := db.GetLatestBlockHeight()
			if err != nil {
				return err
			}
			hash, err := db.GetBlockHash(height)
			if err != nil {
				return err
			}
			if hash == nil {
				return fmt.Errorf("no hash stored for head block %d", height)
			}
			fmt.Printf("%d %s\n", height, hash.Hex())
			return nil
		},
	}
}

func blockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "block <number>",
		Short: "print an assembled block body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad block number %q: %w", args[0], err)
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			block, err := db.GetBlock(number)
			if err != nil {
				return err
			}
			if block == nil {
				return fmt.Errorf("block %d not found", number)
			}

			fmt.Printf("number:    %d\n", block.Number)
			fmt.Printf("hash:      %s\n", block.Hash.Hex())
			fmt.Printf("parent:    %s\n", block.ParentHash.Hex())
			fmt.Printf("timestamp: %d\n", block.Timestamp)
			fmt.Printf("gas used:  %d / %d\n", block.GasUsed, block.GasLimit)
			fmt.Printf("tx root:   %s\n", block.TransactionsRoot.Hex())
			fmt.Printf("txs:       %d\n", len(block.Transactions))
			for i, txHash := range block.Transactions {
				fmt.Printf("  %4d %s\n", i, txHash.Hex())
			}
			return nil
		},
	}
}

func logsCmd() *cobra.Command {
	var (
		from    uint64
		to      uint64
		address string
		topics  []string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "filter logs by block range, contract address and topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var fromBlock, toBlock *uint64
			if cmd.Flags().Changed("from") {
				fromBlock = &from
			}
			if cmd.Flags().Changed("to") {
				toBlock = &to
			}

			var contract *common.Address
			if address != "" {
				if !common.IsHexAddress(address) {
					return fmt.Errorf("bad --address %q", address)
				}
				a := common.HexToAddress(address)
				contract = &a
			}

			// "_" keeps a topic position unconstrained.
			filter := make([]*common.Hash, 0, len(topics))
			for _, topic := range topics {
				if topic == "_" {
					filter = append(filter, nil)
					continue
				}
				h := common.HexToHash(topic)
				filter = append(filter, &h)
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			logs, err := db.GetLogs(fromBlock, toBlock, contract, filter)
			if err != nil {
				return err
			}
			for _, l := range logs {
				fmt.Printf("block %d tx %d log %d %s %s\n",
					l.BlockNumber, l.TransactionIndex, l.LogIndex, l.Address.Hex(), l.TransactionHash.Hex())
				for j, topic := range l.Topics {
					fmt.Printf("  topic %d %s\n", j, topic.Hex())
				}
				fmt.Printf("  data 0x%x\n", l.Data)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 0, "first block of the scan (defaults to head)")
	cmd.Flags().Uint64Var(&to, "to", 0, "last block of the scan (defaults to head)")
	cmd.Flags().StringVar(&address, "address", "", "only logs of this contract address")
	cmd.Flags().StringArrayVar(&topics, "topic", nil, "topic filter, positional; repeat per position, \"_\" matches any")
	return cmd
}
