package vm

import (
	"encoding/json"
	"sort"
)

// PageInfo summarizes one mapped page in a state snapshot.
type PageInfo struct {
	Index  uint64 `json:"index"`
	Access string `json:"access"`
}

// StateSnapshot is the canonical JSON view of a terminated (or suspended)
// machine, used by the CLI's --json output and --pages rendering.
type StateSnapshot struct {
	Registers  []uint64   `json:"registers"`
	PC         uint64     `json:"pc"`
	Gas        int64      `json:"gas"`
	ExitReason string     `json:"exit-reason,omitempty"`
	ExitData   string     `json:"exit-data,omitempty"`
	Pages      []PageInfo `json:"pages"`
}

// Snapshot captures the observable machine state.
func (vm *VM) Snapshot() StateSnapshot {
	regs := make([]uint64, regSize)
	copy(regs, vm.registers[:])
	snap := StateSnapshot{
		Registers: regs,
		PC:        vm.pc,
		Gas:       vm.gas,
	}
	if vm.exit != nil {
		snap.ExitReason = vm.exit.Reason.String()
		snap.ExitData = vm.exit.Data
	}
	indices := vm.ram.PageIndices()
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	for _, idx := range indices {
		snap.Pages = append(snap.Pages, PageInfo{Index: idx, Access: vm.ram.Access(idx).String()})
	}
	return snap
}

// DumpState renders the snapshot as indented JSON.
func (vm *VM) DumpState() ([]byte, error) {
	return json.MarshalIndent(vm.Snapshot(), "", "  ")
}
