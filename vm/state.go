package vm

import (
	"errors"
	"fmt"
)

const regSize = 13

// DefaultGasLimit is the gas limit callers use when they have no budget of
// their own.
const DefaultGasLimit = 1_000_000

// ExitReason is the terminal tag of one program run.
type ExitReason uint8

const (
	ExitHalt ExitReason = iota
	ExitPanic
	ExitOutOfGas
	ExitPageFault
	ExitHostCall
)

func (r ExitReason) String() string {
	switch r {
	case ExitHalt:
		return "halt"
	case ExitPanic:
		return "panic"
	case ExitOutOfGas:
		return "out-of-gas"
	case ExitPageFault:
		return "page-fault"
	case ExitHostCall:
		return "host-call"
	}
	return fmt.Sprintf("exit(%d)", uint8(r))
}

// Exit is the (reason, data) pair produced exactly once when a run ends.
// Data is descriptive only; the host decides what to do with it.
type Exit struct {
	Reason ExitReason
	Data   string
}

// VM holds the machine state for one program run: the 13-entry register
// file, program counter, gas counter and paged memory. It is created by
// Execute and surrendered to the caller on termination for inspection.
type VM struct {
	registers  [regSize]uint64
	pc         uint64
	gas        int64
	ram        *PagedMemory
	exit       *Exit
	hostCallID uint64
}

// ErrNoProgram is returned by Execute before any state is created when the
// program image is missing.
var ErrNoProgram = errors.New("no program image")

// New builds a fresh machine with the program image loaded as read-only
// pages starting at page 0 and the prefix of initialRegs copied into the
// register file. The gas limit is taken as-is; a non-positive limit
// exhausts at the top of the first cycle.
func New(prog []byte, initialRegs []uint64, gasLimit int64) (*VM, error) {
	if len(prog) == 0 {
		return nil, ErrNoProgram
	}
	vm := &VM{
		gas: gasLimit,
		ram: NewPagedMemory(),
	}
	for i := 0; i < len(initialRegs) && i < regSize; i++ {
		vm.registers[i] = initialRegs[i]
	}
	// The image is split into page-sized chunks; the tail page is
	// zero-padded by construction.
	numPages := (uint64(len(prog)) + PageSize - 1) / PageSize
	for pageIndex := uint64(0); pageIndex < numPages; pageIndex++ {
		vm.ram.Allocate(pageIndex, ReadOnly)
	}
	vm.ram.writeUnchecked(0, prog)
	return vm, nil
}

// Execute runs a program image to termination and returns the exit reason
// together with the final machine state. The error is non-nil only for
// invalid arguments; machine events (panic, page fault, gas exhaustion,
// host call) are outcomes of the program, not errors.
func Execute(prog []byte, initialRegs []uint64, gasLimit int64) (ExitReason, *VM, error) {
	vm, err := New(prog, initialRegs, gasLimit)
	if err != nil {
		return 0, nil, err
	}
	return vm.Run(), vm, nil
}

// Registers returns a copy of the register file.
func (vm *VM) Registers() [regSize]uint64 {
	return vm.registers
}

// SetRegister overwrites one register. Hosts use this to place a return
// value before resuming from a host call.
func (vm *VM) SetRegister(i int, v uint64) error {
	if i < 0 || i >= regSize {
		return fmt.Errorf("register index %d out of range", i)
	}
	vm.registers[i] = v
	return nil
}

// PC returns the current program counter.
func (vm *VM) PC() uint64 {
	return vm.pc
}

// SetPC repositions the program counter.
func (vm *VM) SetPC(pc uint64) {
	vm.pc = pc
}

// GasRemaining returns the gas counter.
func (vm *VM) GasRemaining() int64 {
	return vm.gas
}

// Memory exposes the page map. Reads through it never mutate state.
func (vm *VM) Memory() *PagedMemory {
	return vm.ram
}

// Exit returns the terminal pair, or (0, "") while the machine is runnable.
func (vm *VM) Exit() (ExitReason, string) {
	if vm.exit == nil {
		return 0, ""
	}
	return vm.exit.Reason, vm.exit.Data
}

// HostCallID returns the immediate of the ecalli that last yielded.
func (vm *VM) HostCallID() uint64 {
	return vm.hostCallID
}
