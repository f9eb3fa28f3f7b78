package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/wordvm/vm/program"
)

// Run drives the fetch→decode→execute loop until a terminal exit. Gas is
// checked at the top of each cycle, so an instruction begun with positive
// gas runs to completion. A failed instruction fetch is a panic, not a page
// fault: jumping into unmapped code is a program defect, while dereferencing
// an unmapped data pointer is a fault the host may want to service.
func (vm *VM) Run() ExitReason {
	if vm.exit != nil {
		return vm.exit.Reason
	}
	for {
		if vm.gas <= 0 {
			vm.exit = &Exit{ExitOutOfGas, fmt.Sprintf("gas exhausted at pc=%d", vm.pc)}
			return vm.exit.Reason
		}
		raw, err := vm.ram.Read(vm.pc, 4)
		if err != nil {
			vm.exit = &Exit{ExitPanic, fmt.Sprintf("instruction fetch failed at pc=%d: %v", vm.pc, err)}
			return vm.exit.Reason
		}
		word := binary.LittleEndian.Uint32(raw)
		in, err := program.Decode(word, vm.pc)
		if err != nil {
			vm.exit = &Exit{ExitPanic, err.Error()}
			return vm.exit.Reason
		}
		nextPC, exit := vm.step(in)
		if exit != nil {
			vm.exit = exit
			return vm.exit.Reason
		}
		vm.pc = nextPC
		vm.gas -= in.Def.Gas
	}
}

// step executes one decoded instruction. It returns the next program counter
// for a continuation, or a terminal exit with the program counter untouched.
func (vm *VM) step(in *program.Instruction) (uint64, *Exit) {
	handler := dispatchTable[in.Opcode]
	if handler == nil {
		return vm.pc, &Exit{ExitPanic, fmt.Sprintf("unimplemented opcode %s at pc=%d", in.Def.Name, vm.pc)}
	}
	return handler(vm, in)
}

// Resume services a host-call exit: it steps the program counter past the
// ecalli word and re-enters the loop. The host typically mutates registers
// first via SetRegister.
func (vm *VM) Resume() (ExitReason, error) {
	if vm.exit == nil || vm.exit.Reason != ExitHostCall {
		return 0, fmt.Errorf("not stopped at a host call")
	}
	vm.exit = nil
	vm.pc += 4
	return vm.Run(), nil
}
