package vm_test

import (
	"encoding/json"
	"testing"

	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/wordvm/asm"
	"github.com/colorfulnotion/wordvm/vm"
)

// TestCase pins whole-machine outcomes: each case assembles a program, runs
// it, and diffs the registers, pc, remaining gas and exit reason against the
// expected ones. Page map and exit data are not compared.
type TestCase struct {
	Name        string    `json:"name"`
	InitialRegs []uint64  `json:"initial-regs"`
	GasLimit    int64     `json:"gas-limit"`
	Program     string    `json:"program"`
	Expected    expected  `json:"expected"`
}

type expected struct {
	Registers  [13]uint64 `json:"registers"`
	PC         uint64     `json:"pc"`
	Gas        int64      `json:"gas"`
	ExitReason string     `json:"exit-reason"`
}

func snapshotForDiff(machine *vm.VM, reason vm.ExitReason) expected {
	return expected{
		Registers:  machine.Registers(),
		PC:         machine.PC(),
		Gas:        machine.GasRemaining(),
		ExitReason: reason.String(),
	}
}

func TestVectors(t *testing.T) {
	cases := []TestCase{
		{
			Name:     "inst_add_64",
			GasLimit: 1000,
			Program:  "load_imm r0 42\nload_imm r1 100\nadd_64 r0 r1 r2\ntrap",
			Expected: expected{
				Registers:  [13]uint64{42, 100, 142},
				PC:         12,
				Gas:        1000,
				ExitReason: "panic",
			},
		},
		{
			Name:        "inst_sub_32_wraps",
			InitialRegs: []uint64{0, 1},
			GasLimit:    1000,
			Program:     "sub_32 r0 r1 r2\ntrap",
			Expected: expected{
				Registers:  [13]uint64{0, 1, 0xffffffffffffffff},
				PC:         4,
				Gas:        1000,
				ExitReason: "panic",
			},
		},
		{
			Name:     "host_call_suspends",
			GasLimit: 500,
			Program:  "fallthrough\necalli 12\ntrap",
			Expected: expected{
				PC:         4,
				Gas:        500,
				ExitReason: "host-call",
			},
		},
		{
			Name:        "page_fault_address",
			InitialRegs: []uint64{0x2000},
			GasLimit:    1000,
			Program:     "load_u64 r0 0\ntrap",
			Expected: expected{
				Registers:  [13]uint64{0x2000},
				PC:         0,
				Gas:        1000,
				ExitReason: "page-fault",
			},
		},
	}

	opts := jsondiff.DefaultConsoleOptions()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			code, err := asm.Assemble(tc.Program)
			require.NoError(t, err)
			reason, machine, err := vm.Execute(code, tc.InitialRegs, tc.GasLimit)
			require.NoError(t, err)

			got, err := json.Marshal(snapshotForDiff(machine, reason))
			require.NoError(t, err)
			want, err := json.Marshal(tc.Expected)
			require.NoError(t, err)

			diff, desc := jsondiff.Compare(want, got, &opts)
			require.Equal(t, jsondiff.FullMatch, diff, "state mismatch: %s", desc)
		})
	}
}
