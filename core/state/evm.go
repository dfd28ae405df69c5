package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ledgerwatch/brc20-state/core/types"
)

// The EVM-facing surface: the four reads the interpreter performs, plus the
// hook that absorbs the post-execution account diff. Absent code, storage and
// block hashes read as empty/zero, matching EVM semantics; Basic reports an
// absent account as nil, not as a default account. The EVM never sees history.

// StorageSlot is one entry of an account's post-execution storage diff.
type StorageSlot struct {
	PresentValue uint256.Int
	Changed      bool
}

// AccountChange is the executor's view of one account after a transaction.
type AccountChange struct {
	Info    types.AccountInfo
	Storage map[uint256.Int]StorageSlot
	Touched bool
	Created bool
}

// Basic returns the account's info with Code resolved through CodeByHash,
// nil when the account does not exist.
func (db *DB) Basic(addr common.Address) (*types.AccountInfo, error) {
	info, err := db.GetAccountInfo(addr)
	if err != nil || info == nil {
		return nil, err
	}
	code, err := db.CodeByHash(info.CodeHash)
	if err != nil {
		return nil, err
	}
	info.Code = &code
	return info, nil
}

// CodeByHash returns empty bytecode for unknown hashes.
func (db *DB) CodeByHash(codeHash common.Hash) (types.Bytecode, error) {
	code, err := db.GetCode(codeHash)
	if err != nil || code == nil {
		return types.Bytecode{}, err
	}
	return *code, nil
}

// Storage returns the zero value for unset slots.
func (db *DB) Storage(addr common.Address, slot *uint256.Int) (uint256.Int, error) {
	value, err := db.GetAccountMemory(addr, slot)
	if err != nil || value == nil {
		return uint256.Int{}, err
	}
	return *value, nil
}

// BlockHash returns the zero hash for unknown heights.
func (db *DB) BlockHash(number uint64) (common.Hash, error) {
	hash, err := db.GetBlockHash(number)
	if err != nil || hash == nil {
		return common.Hash{}, err
	}
	return *hash, nil
}

// ApplyChanges persists the executor's account diff: basic info for every
// touched account, bytecode for newly created contracts, and every storage
// slot the execution changed. Writes land in the overlays and become durable
// at the next CommitChanges.
func (db *DB) ApplyChanges(changes map[common.Address]*AccountChange) error {
	for addr, account := range changes {
		if !account.Touched {
			continue
		}

		if err := db.SetAccountInfo(addr, account.Info); err != nil {
			return err
		}

		if account.Created && account.Info.Code != nil {
			if err := db.SetCode(account.Info.CodeHash, *account.Info.Code); err != nil {
				return err
			}
		}

		for slot, entry := range account.Storage {
			if !entry.Changed {
				continue
			}
			slot := slot
			if err := db.SetAccountMemory(addr, &slot, &entry.PresentValue); err != nil {
				return err
			}
		}
	}
	return nil
}
