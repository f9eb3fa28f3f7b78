package asm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/colorfulnotion/wordvm/vm/program"
)

// FormatInstruction renders a decoded instruction the way the assembler
// reads it, one mnemonic and space-separated operands.
func FormatInstruction(in *program.Instruction) string {
	switch in.Def.Shape {
	case program.ShapeNoArgs:
		return in.Def.Name
	case program.ShapeOneImm:
		return fmt.Sprintf("%s %d", in.Def.Name, in.Imm1)
	case program.ShapeOneRegExtImm, program.ShapeOneRegOneImm:
		return fmt.Sprintf("%s r%d %d", in.Def.Name, in.Reg1, in.Imm1)
	case program.ShapeTwoImm:
		return fmt.Sprintf("%s %d %d", in.Def.Name, in.Imm1, in.Imm2)
	case program.ShapeOneOffset:
		return fmt.Sprintf("%s %d", in.Def.Name, in.Offset)
	case program.ShapeTwoReg:
		return fmt.Sprintf("%s r%d r%d", in.Def.Name, in.Reg1, in.Reg2)
	case program.ShapeThreeReg:
		return fmt.Sprintf("%s r%d r%d r%d", in.Def.Name, in.Reg1, in.Reg2, in.Reg3)
	}
	return in.Def.Name
}

// Disassemble decodes a program image back into one instruction per line.
// The image length must be a multiple of the 4-byte word size.
func Disassemble(code []byte) (string, error) {
	if len(code)%4 != 0 {
		return "", fmt.Errorf("image length %d is not a multiple of 4", len(code))
	}
	var sb strings.Builder
	for pc := uint64(0); pc < uint64(len(code)); pc += 4 {
		word := binary.LittleEndian.Uint32(code[pc : pc+4])
		in, err := program.Decode(word, pc)
		if err != nil {
			return "", err
		}
		sb.WriteString(FormatInstruction(in))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
