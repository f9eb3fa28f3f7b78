package vm

import (
	"fmt"
	"math/bits"

	"github.com/colorfulnotion/wordvm/vm/program"
)

// Two-register handlers. The shape is (dst, src).

func (vm *VM) handleMOVE_REG(in *program.Instruction) (uint64, *Exit) {
	vm.registers[in.Reg1] = vm.registers[in.Reg2]
	return vm.next(), nil
}

// handleSBRK is a bump allocator: it appends ceil(n/PageSize) fresh
// read-write pages at the end of the page map and returns their base
// address. Nothing is ever reclaimed and holes in the map are not reused.
func (vm *VM) handleSBRK(in *program.Instruction) (uint64, *Exit) {
	n := vm.registers[in.Reg2]
	pagesNeeded := (n + PageSize - 1) / PageSize
	base := uint64(vm.ram.PageCount())
	for i := uint64(0); i < pagesNeeded; i++ {
		vm.ram.Allocate(base+i, ReadWrite)
	}
	vm.registers[in.Reg1] = base * PageSize
	return vm.next(), nil
}

func (vm *VM) handleBitManip(in *program.Instruction) (uint64, *Exit) {
	src := vm.registers[in.Reg2]
	var value uint64
	switch in.Opcode {
	case program.COUNT_SET_BITS_64:
		value = uint64(bits.OnesCount64(src))
	case program.COUNT_SET_BITS_32:
		value = uint64(bits.OnesCount32(uint32(src)))
	case program.LEADING_ZERO_BITS_64:
		value = uint64(bits.LeadingZeros64(src))
	case program.LEADING_ZERO_BITS_32:
		value = uint64(bits.LeadingZeros32(uint32(src)))
	case program.TRAILING_ZERO_BITS_64:
		value = uint64(bits.TrailingZeros64(src))
	case program.TRAILING_ZERO_BITS_32:
		value = uint64(bits.TrailingZeros32(uint32(src)))
	case program.SIGN_EXTEND_8:
		value = program.SignExtend(src&0xff, 8)
	case program.SIGN_EXTEND_16:
		value = program.SignExtend(src&0xffff, 16)
	case program.ZERO_EXTEND_16:
		value = src & 0xffff
	case program.REVERSE_BYTES:
		value = bits.ReverseBytes64(src)
	default:
		return vm.pc, &Exit{ExitPanic, fmt.Sprintf("unimplemented opcode %s at pc=%d", in.Def.Name, vm.pc)}
	}
	vm.registers[in.Reg1] = value
	return vm.next(), nil
}
