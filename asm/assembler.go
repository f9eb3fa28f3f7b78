// Package asm implements the textual mnemonic form of the bytecode: a
// line-oriented assembler and the matching disassembler. The encoder's
// contract is that decoding an encoded line yields the same mnemonic and
// operand tuple.
package asm

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/colorfulnotion/wordvm/vm/program"
)

func splitTokens(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

func parseReg(tok string) (int, error) {
	if len(tok) < 2 || (tok[0] != 'r' && tok[0] != 'R') {
		return 0, fmt.Errorf("expected register, got %q", tok)
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 || n >= program.NumRegisters {
		return 0, fmt.Errorf("register %q out of range r0..r%d", tok, program.NumRegisters-1)
	}
	return n, nil
}

func parseImm(tok string) (uint64, error) {
	v, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected immediate, got %q", tok)
	}
	return v, nil
}

func parseOffset(tok string) (int64, error) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected offset, got %q", tok)
	}
	return v, nil
}

// AssembleLine encodes one mnemonic line into an instruction word. Blank and
// comment lines are the caller's concern.
func AssembleLine(line string) (uint32, error) {
	toks := splitTokens(line)
	if len(toks) == 0 {
		return 0, fmt.Errorf("empty line")
	}
	def := program.LookupName(strings.ToLower(toks[0]))
	if def == nil {
		return 0, fmt.Errorf("unknown mnemonic %q", toks[0])
	}
	ops := toks[1:]
	in := &program.Instruction{Opcode: def.Opcode, Def: def}

	need := func(n int) error {
		if len(ops) != n {
			return fmt.Errorf("%s takes %d operand(s), got %d", def.Name, n, len(ops))
		}
		return nil
	}

	var err error
	switch def.Shape {
	case program.ShapeNoArgs:
		err = need(0)

	case program.ShapeOneImm:
		if err = need(1); err == nil {
			in.Imm1, err = parseImm(ops[0])
		}

	case program.ShapeOneRegExtImm, program.ShapeOneRegOneImm:
		if err = need(2); err == nil {
			if in.Reg1, err = parseReg(ops[0]); err == nil {
				in.Imm1, err = parseImm(ops[1])
			}
		}

	case program.ShapeTwoImm:
		if err = need(2); err == nil {
			if in.Imm1, err = parseImm(ops[0]); err == nil {
				in.Imm2, err = parseImm(ops[1])
			}
		}

	case program.ShapeOneOffset:
		if err = need(1); err == nil {
			in.Offset, err = parseOffset(ops[0])
		}

	case program.ShapeTwoReg:
		if err = need(2); err == nil {
			if in.Reg1, err = parseReg(ops[0]); err == nil {
				in.Reg2, err = parseReg(ops[1])
			}
		}

	case program.ShapeThreeReg:
		if err = need(3); err == nil {
			if in.Reg1, err = parseReg(ops[0]); err == nil {
				if in.Reg2, err = parseReg(ops[1]); err == nil {
					in.Reg3, err = parseReg(ops[2])
				}
			}
		}
	}
	if err != nil {
		return 0, err
	}
	return program.Encode(in)
}

// Assemble turns newline-separated mnemonic records into a program image.
// Blank lines and lines starting with '#' are skipped; errors carry the
// 1-based line number.
func Assemble(src string) ([]byte, error) {
	var out []byte
	for lineNo, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		word, err := AssembleLine(trimmed)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], word)
		out = append(out, buf[:]...)
	}
	return out, nil
}
