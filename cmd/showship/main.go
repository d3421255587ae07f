package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nickandperla.net/sss"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var phases int
	cmd := &cobra.Command{
		Use:   "showship [record]",
		Short: "Print the phases of a ship record",
		Long: "Takes a record \"minPop, rule, dx, dy, period, rle\" as an argument or on stdin " +
			"and prints each generation of one period.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ")
			if line == "" {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					line = scanner.Text()
				}
				if err := scanner.Err(); err != nil {
					return err
				}
			}
			ship, err := sss.ParseShip(line)
			if err != nil {
				return fmt.Errorf("Invalid ship string %q: %w", line, err)
			}

			v := sss.NewViewer([]*sss.Ship{ship})
			if err := v.Load(0); err != nil {
				return err
			}
			n := phases
			if n <= 0 {
				n = ship.Period
			}
			out := cmd.OutOrStdout()
			for i := 0; i < n; i++ {
				fmt.Fprintln(out, v.Status())
				fmt.Fprintln(out, v.Frame())
				v.Step(1)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&phases, "gens", 0, "generations to print, defaults to the period")
	return cmd
}
