package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gopwr/host/profile"
	"gopwr/telemetry"
)

var profileCmd = newProfileCmd()

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Validate and inspect board profiles",
	}
	cmd.AddCommand(newProfileValidateCmd())
	cmd.AddCommand(newProfileShowCmd())

	return cmd
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func newProfileValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <profile.yaml>",
		Short: "Check a profile against the firmware's legality rules",
		Long: `Validate applies the same checks the firmware applies at commit
time: the supply strategy must exist on the chip, overdrive needs
revision V silicon, and the planned SYSCLK must fit under the voltage
scale ceiling. An illegal profile dies here instead of latching wrong
bits on a board.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s: ok (%s on %s)\n", args[0], p.Supply, p.Chip)
			return nil
		},
	}
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <profile.yaml>",
		Short: "Show what a profile commits the board to",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			bits, err := p.ExpectedBits()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Setting", "Value"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

			table.Append([]string{"board", p.Board})
			table.Append([]string{"chip", p.Chip})
			table.Append([]string{"revision", p.Revision})
			table.Append([]string{"supply", p.Supply})
			table.Append([]string{"overdrive", fmt.Sprint(p.Overdrive)})
			table.Append([]string{"expected CR3 bits", fmt.Sprintf("0x%02X", telemetry.PackBits(bits))})
			table.Append([]string{"expected scale", fmt.Sprintf("Scale%d", p.ExpectedScale())})
			table.Append([]string{"sysclk plan", fmt.Sprintf("%d Hz", p.SysClkHz)})
			table.Append([]string{"sysclk ceiling", fmt.Sprintf("%d Hz", p.Ceiling())})
			for _, r := range p.Rails {
				table.Append([]string{
					"rail " + r.Name,
					fmt.Sprintf("%d..%d uV", r.MinMicrovolts, r.MaxMicrovolts),
				})
			}
			table.Render()
			return nil
		},
	}
}
