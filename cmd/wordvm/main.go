// wordvm - assemble, inspect and run bytecode images.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/colorfulnotion/wordvm/asm"
	"github.com/colorfulnotion/wordvm/log"
	"github.com/colorfulnotion/wordvm/vm"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:     "wordvm",
		Short:   "Deterministic 64-bit register VM with gas and paged memory",
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.InitLogger(logLevel)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace..crit)")

	var outPath string
	assembleCmd := &cobra.Command{
		Use:   "assemble <file.asm>",
		Short: "Assemble a mnemonic file into a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			code, err := asm.Assemble(string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := os.WriteFile(outPath, code, 0o644); err != nil {
				return err
			}
			log.Info("assembled", "input", args[0], "output", outPath, "bytes", len(code))
			return nil
		},
	}
	assembleCmd.Flags().StringVarP(&outPath, "output", "o", "prog.bin", "output image path")

	disasmCmd := &cobra.Command{
		Use:   "disasm <file.bin>",
		Short: "Disassemble a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			text, err := asm.Disassemble(code)
			if err != nil {
				return err
			}
			for pc, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
				fmt.Printf("%6d: %s\n", pc*4, line)
			}
			return nil
		},
	}

	var (
		gasLimit  int64
		regFlags  []string
		showPages bool
		asJSON    bool
	)
	runCmd := &cobra.Command{
		Use:   "run <file.bin>",
		Short: "Execute a program image and report the final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			initialRegs, err := parseRegFlags(regFlags)
			if err != nil {
				return err
			}
			reason, machine, err := vm.Execute(code, initialRegs, gasLimit)
			if err != nil {
				return err
			}
			if asJSON {
				out, err := machine.DumpState()
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			_, data := machine.Exit()
			fmt.Printf("exit:   %s (%s)\n", reason, data)
			fmt.Printf("pc:     %d\n", machine.PC())
			fmt.Printf("gas:    %d\n", machine.GasRemaining())
			for i, v := range machine.Registers() {
				fmt.Printf("r%-2d = %d (0x%x)\n", i, v, v)
			}
			if showPages {
				fmt.Print(renderPages(machine))
			}
			return nil
		},
	}
	runCmd.Flags().Int64Var(&gasLimit, "gas", vm.DefaultGasLimit, "gas limit")
	runCmd.Flags().StringArrayVar(&regFlags, "reg", nil, "initial register, i=value (repeatable)")
	runCmd.Flags().BoolVar(&showPages, "pages", false, "render the final page map")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "emit the state snapshot as JSON")

	rootCmd.AddCommand(assembleCmd, disasmCmd, runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseRegFlags(flags []string) ([]uint64, error) {
	regs := make([]uint64, 13)
	for _, f := range flags {
		idx, val, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("bad --reg %q, want i=value", f)
		}
		i, err := strconv.Atoi(strings.TrimPrefix(idx, "r"))
		if err != nil || i < 0 || i > 12 {
			return nil, fmt.Errorf("bad --reg index %q", idx)
		}
		v, err := strconv.ParseUint(val, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad --reg value %q", val)
		}
		regs[i] = v
	}
	return regs, nil
}

func renderPages(machine *vm.VM) string {
	tree := treeprint.NewWithRoot("pages")
	for _, p := range machine.Snapshot().Pages {
		tree.AddNode(fmt.Sprintf("page %d [%d..%d) %s",
			p.Index, p.Index*vm.PageSize, (p.Index+1)*vm.PageSize, p.Access))
	}
	return tree.String()
}
