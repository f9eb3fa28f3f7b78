package vm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/colorfulnotion/wordvm/vm/program"
)

type opcodeHandler func(vm *VM, in *program.Instruction) (uint64, *Exit)

var dispatchTable [256]opcodeHandler

func init() {
	dispatchTable[program.TRAP] = (*VM).handleTRAP
	dispatchTable[program.FALLTHROUGH] = (*VM).handleFALLTHROUGH
	dispatchTable[program.ECALLI] = (*VM).handleECALLI
	dispatchTable[program.LOAD_IMM_64] = (*VM).handleLOAD_IMM_64
	dispatchTable[program.STORE_IMM_U8] = (*VM).handleSTORE_IMM
	dispatchTable[program.STORE_IMM_U16] = (*VM).handleSTORE_IMM
	dispatchTable[program.STORE_IMM_U32] = (*VM).handleSTORE_IMM
	dispatchTable[program.STORE_IMM_U64] = (*VM).handleSTORE_IMM
	dispatchTable[program.JUMP] = (*VM).handleJUMP
	dispatchTable[program.JUMP_IND] = (*VM).handleJUMP_IND
	dispatchTable[program.LOAD_IMM] = (*VM).handleLOAD_IMM
	dispatchTable[program.LOAD_U8] = (*VM).handleLOAD
	dispatchTable[program.LOAD_I8] = (*VM).handleLOAD
	dispatchTable[program.LOAD_U16] = (*VM).handleLOAD
	dispatchTable[program.LOAD_I16] = (*VM).handleLOAD
	dispatchTable[program.LOAD_U32] = (*VM).handleLOAD
	dispatchTable[program.LOAD_I32] = (*VM).handleLOAD
	dispatchTable[program.LOAD_U64] = (*VM).handleLOAD
	dispatchTable[program.STORE_U8] = (*VM).handleSTORE
	dispatchTable[program.STORE_U16] = (*VM).handleSTORE
	dispatchTable[program.STORE_U32] = (*VM).handleSTORE
	dispatchTable[program.STORE_U64] = (*VM).handleSTORE

	dispatchTable[program.MOVE_REG] = (*VM).handleMOVE_REG
	dispatchTable[program.SBRK] = (*VM).handleSBRK
	for op := program.COUNT_SET_BITS_64; op <= program.REVERSE_BYTES; op++ {
		dispatchTable[op] = (*VM).handleBitManip
	}
	for op := program.ADD_32; op <= program.CMOV_NZ; op++ {
		dispatchTable[op] = (*VM).handleThreeReg
	}
}

// next is the default continuation for a non-branch instruction.
func (vm *VM) next() uint64 {
	return vm.pc + 4
}

// memFault converts a memory-layer error into a page-fault exit naming the
// offending page.
func (vm *VM) memFault(err error) *Exit {
	var pf *PageFault
	if errors.As(err, &pf) {
		return &Exit{ExitPageFault, fmt.Sprintf("page fault at page %d (pc=%d)", pf.Page, vm.pc)}
	}
	return &Exit{ExitPanic, err.Error()}
}

func (vm *VM) handleTRAP(in *program.Instruction) (uint64, *Exit) {
	return vm.pc, &Exit{ExitPanic, fmt.Sprintf("Trap at pc=%d", vm.pc)}
}

func (vm *VM) handleFALLTHROUGH(in *program.Instruction) (uint64, *Exit) {
	return vm.next(), nil
}

func (vm *VM) handleECALLI(in *program.Instruction) (uint64, *Exit) {
	// The PC stays on the ecalli word so the host can inspect it and
	// resume by stepping past it.
	vm.hostCallID = in.Imm1
	return vm.pc, &Exit{ExitHostCall, fmt.Sprintf("host call %d", in.Imm1)}
}

func (vm *VM) handleLOAD_IMM_64(in *program.Instruction) (uint64, *Exit) {
	vm.registers[in.Reg1] = in.Imm1
	return vm.next(), nil
}

func (vm *VM) handleSTORE_IMM(in *program.Instruction) (uint64, *Exit) {
	var width int
	switch in.Opcode {
	case program.STORE_IMM_U8:
		width = 1
	case program.STORE_IMM_U16:
		width = 2
	case program.STORE_IMM_U32:
		width = 4
	case program.STORE_IMM_U64:
		width = 8
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, in.Imm2)
	if err := vm.ram.Write(in.Imm1, buf[:width]); err != nil {
		return vm.pc, vm.memFault(err)
	}
	return vm.next(), nil
}

func (vm *VM) handleJUMP(in *program.Instruction) (uint64, *Exit) {
	return vm.pc + uint64(in.Offset), nil
}

func (vm *VM) handleJUMP_IND(in *program.Instruction) (uint64, *Exit) {
	// The target is clamped to the 4-byte instruction grid.
	target := (vm.registers[in.Reg1] + in.Imm1) &^ 3
	return target, nil
}

func (vm *VM) handleLOAD_IMM(in *program.Instruction) (uint64, *Exit) {
	vm.registers[in.Reg1] = in.Imm1
	return vm.next(), nil
}

func (vm *VM) handleLOAD(in *program.Instruction) (uint64, *Exit) {
	var width int
	var signed bool
	switch in.Opcode {
	case program.LOAD_U8:
		width = 1
	case program.LOAD_I8:
		width, signed = 1, true
	case program.LOAD_U16:
		width = 2
	case program.LOAD_I16:
		width, signed = 2, true
	case program.LOAD_U32:
		width = 4
	case program.LOAD_I32:
		width, signed = 4, true
	case program.LOAD_U64:
		width = 8
	}
	addr := vm.registers[in.Reg1] + in.Imm1
	raw, err := vm.ram.Read(addr, width)
	if err != nil {
		return vm.pc, vm.memFault(err)
	}
	var value uint64
	for i := width - 1; i >= 0; i-- {
		value = value<<8 | uint64(raw[i])
	}
	if signed {
		value = program.SignExtend(value, uint(width*8))
	}
	vm.registers[in.Reg1] = value
	return vm.next(), nil
}

func (vm *VM) handleSTORE(in *program.Instruction) (uint64, *Exit) {
	var width int
	switch in.Opcode {
	case program.STORE_U8:
		width = 1
	case program.STORE_U16:
		width = 2
	case program.STORE_U32:
		width = 4
	case program.STORE_U64:
		width = 8
	}
	addr := vm.registers[in.Reg1] + in.Imm1
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, vm.registers[in.Reg1])
	if err := vm.ram.Write(addr, buf[:width]); err != nil {
		return vm.pc, vm.memFault(err)
	}
	return vm.next(), nil
}
