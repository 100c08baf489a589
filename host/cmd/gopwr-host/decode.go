package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gopwr/core"
	"gopwr/host/monitor"
	"gopwr/telemetry"
)

var decodeCmd = newDecodeCmd()

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <archive.cbor>",
		Short: "Replay a captured telemetry session",
		Long: `Decode reads a session archive written by 'monitor --archive' and
prints its records. Commit and fault reports are shown in full; rail
samples are summarized per rail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args[0])
		},
	}
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

// railSummary accumulates one rail's samples across the session.
type railSummary struct {
	count  int
	minUV  int32
	maxUV  int32
	lastUV int32
	lastUA int32
}

func runDecode(cmd *cobra.Command, path string) error {
	hdr, entries, err := monitor.ReadArchive(path)
	if err != nil {
		return err
	}

	cmd.Printf("session %s, started %s", hdr.Session,
		time.Unix(hdr.StartedUnix, 0).Format(time.RFC3339))
	if hdr.Board != "" {
		cmd.Printf(", board %s (%s)", hdr.Board, hdr.Chip)
	}
	cmd.Printf(", %d records\n\n", len(entries))

	rails := map[string]*railSummary{}
	var railOrder []string

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Record", "Detail"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, e := range entries {
		switch {
		case e.Commit != nil:
			r := e.Commit
			table.Append([]string{"commit", fmt.Sprintf(
				"%s %s scale=%d bits=0x%02X polls=%d/%d/%d",
				r.Family, core.SupplyStrategy(r.Strategy), r.Scale, r.Bits,
				r.DomainPolls, r.ScalePolls, r.OverdrivePolls)})
		case e.Fault != nil:
			r := e.Fault
			table.Append([]string{"fault", fmt.Sprintf(
				"%s %s %s wrote=%d read=%d",
				core.FaultKind(r.Kind), r.Field,
				core.SupplyStrategy(r.Strategy), r.Want, r.Got)})
		case e.Rail != nil:
			s := e.Rail
			sum, ok := rails[s.Rail]
			if !ok {
				sum = &railSummary{}
				rails[s.Rail] = sum
				railOrder = append(railOrder, s.Rail)
			}
			if sum.count == 0 || s.Microvolts < sum.minUV {
				sum.minUV = s.Microvolts
			}
			if sum.count == 0 || s.Microvolts > sum.maxUV {
				sum.maxUV = s.Microvolts
			}
			sum.lastUV = s.Microvolts
			sum.lastUA = s.Microamps
			sum.count++
		case telemetry.RecordType(e.Type) != 0:
			table.Append([]string{telemetry.RecordType(e.Type).String(), "(empty entry)"})
		}
	}

	for _, name := range railOrder {
		sum := rails[name]
		table.Append([]string{"rail " + name, fmt.Sprintf(
			"%d samples, %d..%d uV, last %d uV %d uA",
			sum.count, sum.minUV, sum.maxUV, sum.lastUV, sum.lastUA)})
	}

	table.Render()
	return nil
}
