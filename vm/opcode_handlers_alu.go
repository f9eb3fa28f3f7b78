package vm

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/colorfulnotion/wordvm/vm/program"
)

// sext32 narrows to 32 bits and sign-extends back to 64, the write-back rule
// for every 32-bit lane result.
func sext32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

// handleThreeReg covers the whole three-register ALU block. The operand
// order is (src1, src2, dst); all arithmetic wraps, and division follows the
// defined-result convention: divide-by-zero and signed overflow produce
// values, never a panic.
func (vm *VM) handleThreeReg(in *program.Instruction) (uint64, *Exit) {
	a := vm.registers[in.Reg1]
	b := vm.registers[in.Reg2]
	var value uint64

	switch in.Opcode {
	case program.ADD_32:
		value = sext32(uint32(a) + uint32(b))
	case program.SUB_32:
		value = sext32(uint32(a) - uint32(b))
	case program.MUL_32:
		value = sext32(uint32(a) * uint32(b))
	case program.DIV_U_32:
		if uint32(b) == 0 {
			value = sext32(math.MaxUint32)
		} else {
			value = sext32(uint32(a) / uint32(b))
		}
	case program.DIV_S_32:
		x, y := int32(a), int32(b)
		switch {
		case y == 0:
			value = ^uint64(0)
		case x == math.MinInt32 && y == -1:
			value = sext32(uint32(x))
		default:
			value = sext32(uint32(x / y))
		}
	case program.REM_U_32:
		if uint32(b) == 0 {
			value = sext32(uint32(a))
		} else {
			value = sext32(uint32(a) % uint32(b))
		}
	case program.REM_S_32:
		x, y := int32(a), int32(b)
		switch {
		case y == 0:
			value = sext32(uint32(x))
		case x == math.MinInt32 && y == -1:
			value = 0
		default:
			value = sext32(uint32(x % y))
		}
	case program.SHLO_L_32:
		value = sext32(uint32(a) << (b % 32))
	case program.SHLO_R_32:
		value = sext32(uint32(a) >> (b % 32))
	case program.SHAR_R_32:
		value = sext32(uint32(int32(a) >> (b % 32)))

	case program.ADD_64:
		value = a + b
	case program.SUB_64:
		value = a - b
	case program.MUL_64:
		value = a * b
	case program.DIV_U_64:
		if b == 0 {
			value = ^uint64(0)
		} else {
			value = a / b
		}
	case program.DIV_S_64:
		x, y := int64(a), int64(b)
		switch {
		case y == 0:
			value = ^uint64(0)
		case x == math.MinInt64 && y == -1:
			value = a
		default:
			value = uint64(x / y)
		}
	case program.REM_U_64:
		if b == 0 {
			value = a
		} else {
			value = a % b
		}
	case program.REM_S_64:
		x, y := int64(a), int64(b)
		switch {
		case y == 0:
			value = a
		case x == math.MinInt64 && y == -1:
			value = 0
		default:
			value = uint64(x % y)
		}
	case program.SHLO_L_64:
		value = a << (b % 64)
	case program.SHLO_R_64:
		value = a >> (b % 64)
	case program.SHAR_R_64:
		value = uint64(int64(a) >> (b % 64))

	case program.AND:
		value = a & b
	case program.XOR:
		value = a ^ b
	case program.OR:
		value = a | b
	case program.MUL_UPPER_S_S:
		hi, _ := bits.Mul64(a, b)
		if int64(a) < 0 {
			hi -= b
		}
		if int64(b) < 0 {
			hi -= a
		}
		value = hi
	case program.MUL_UPPER_U_U:
		hi, _ := bits.Mul64(a, b)
		value = hi
	case program.MUL_UPPER_S_U:
		hi, _ := bits.Mul64(a, b)
		if int64(a) < 0 {
			hi -= b
		}
		value = hi
	case program.SET_LT_U:
		if a < b {
			value = 1
		}
	case program.SET_LT_S:
		if int64(a) < int64(b) {
			value = 1
		}
	case program.CMOV_IZ:
		if b == 0 {
			value = a
		} else {
			value = vm.registers[in.Reg3]
		}
	case program.CMOV_NZ:
		if b != 0 {
			value = a
		} else {
			value = vm.registers[in.Reg3]
		}
	default:
		return vm.pc, &Exit{ExitPanic, fmt.Sprintf("unimplemented opcode %s at pc=%d", in.Def.Name, vm.pc)}
	}

	vm.registers[in.Reg3] = value
	return vm.next(), nil
}
