package asm

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/wordvm/vm/program"
)

// sampleLine builds one legal assembler line for a definition.
func sampleLine(def program.InstrDef) string {
	switch def.Shape {
	case program.ShapeNoArgs:
		return def.Name
	case program.ShapeOneImm:
		return def.Name + " 1193046"
	case program.ShapeOneRegExtImm:
		return def.Name + " r5 65000"
	case program.ShapeTwoImm:
		return def.Name + " 200 40000"
	case program.ShapeOneOffset:
		return def.Name + " -256"
	case program.ShapeOneRegOneImm:
		return def.Name + " r12 1000000"
	case program.ShapeTwoReg:
		return def.Name + " r1 r2"
	case program.ShapeThreeReg:
		return def.Name + " r3 r4 r5"
	}
	return def.Name
}

// Every legal line must decode back to the same mnemonic and operands.
func TestAssembleDecodeRoundTripAllOpcodes(t *testing.T) {
	for _, def := range program.Opcodes() {
		line := sampleLine(def)
		t.Run(def.Name, func(t *testing.T) {
			word, err := AssembleLine(line)
			require.NoError(t, err, line)

			in, err := program.Decode(word, 0)
			require.NoError(t, err)
			assert.Equal(t, def.Opcode, in.Opcode)
			assert.Equal(t, line, FormatInstruction(in))
		})
	}
}

func TestAssembleSkipsBlanksAndComments(t *testing.T) {
	src := `
# a comment line

	# indented comment
trap
`
	code, err := Assemble(src)
	require.NoError(t, err)
	require.Len(t, code, 4)
	assert.Equal(t, uint32(program.TRAP), binary.LittleEndian.Uint32(code))
}

func TestAssembleCommaSeparators(t *testing.T) {
	a, err := Assemble("add_64 r0, r1, r2")
	require.NoError(t, err)
	b, err := Assemble("add_64 r0 r1 r2")
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestAssembleErrorsCarryLineNumbers(t *testing.T) {
	src := "trap\nnot_an_op 1 2\ntrap"
	_, err := Assemble(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "not_an_op")
}

func TestAssembleOperandErrors(t *testing.T) {
	cases := []struct {
		line, wantErr string
	}{
		{"add_64 r0 r1", "3 operand(s)"},
		{"trap 1", "0 operand(s)"},
		{"load_imm r13 1", "out of range"},
		{"load_imm x0 1", "expected register"},
		{"load_imm r0 banana", "expected immediate"},
		{"load_imm r0 1048576", "does not fit"},
		{"jump wat", "expected offset"},
		{"jump 8388608", "does not fit"},
		{"ecalli 16777216", "does not fit"},
	}
	for _, tc := range cases {
		_, err := AssembleLine(tc.line)
		require.Error(t, err, tc.line)
		assert.Contains(t, err.Error(), tc.wantErr, tc.line)
	}
}

func TestDisassembleProducesAssemblableText(t *testing.T) {
	src := "load_imm r0 42\nload_imm r1 100\nadd_64 r0 r1 r2\nmove_reg r3 r2\ntrap"
	code, err := Assemble(src)
	require.NoError(t, err)

	text, err := Disassemble(code)
	require.NoError(t, err)
	assert.Equal(t, src+"\n", text)

	// and the text assembles back to the identical image
	again, err := Assemble(text)
	require.NoError(t, err)
	assert.Equal(t, code, again)
}

func TestDisassembleRejectsRaggedImage(t *testing.T) {
	_, err := Disassemble([]byte{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple of 4")
}

func TestDisassembleRejectsUnknownOpcode(t *testing.T) {
	_, err := Disassemble([]byte{2, 0, 0, 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown opcode")
}

func TestDisassembleNegativeOffset(t *testing.T) {
	code, err := Assemble("jump -8")
	require.NoError(t, err)
	text, err := Disassemble(code)
	require.NoError(t, err)
	assert.Equal(t, "jump -8\n", strings.ToLower(text))
}
