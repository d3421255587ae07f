package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"nickandperla.net/sss"
)

const help = "commands: n (next, default), p (previous), s [gens] (step), g <n> (go to), q (quit)"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "sssviewer <file>",
		Short:        "Browse the ships of an sss file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := sss.LoadDocument(args[0], nil)
			if err != nil {
				return err
			}
			ships := doc.Ships()
			if len(ships) == 0 {
				return fmt.Errorf("No ships in %s", args[0])
			}
			return browse(cmd.OutOrStdout(), sss.NewViewer(ships))
		},
	}
}

func browse(out io.Writer, v *sss.Viewer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintf(out, "%d patterns imported\n%s\n", len(v.Ships), help)
	if err := v.Load(0); err != nil {
		return err
	}
	show(out, v)

	for {
		input, err := line.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if input = strings.TrimSpace(input); input != "" {
			line.AppendHistory(input)
		}

		fields := strings.Fields(input)
		verb := "n"
		if len(fields) > 0 {
			verb = fields[0]
		}
		switch verb {
		case "n":
			err = v.Next()
		case "p":
			err = v.Previous()
		case "s":
			n := 1
			if len(fields) > 1 {
				if n, err = strconv.Atoi(fields[1]); err != nil {
					break
				}
			}
			v.Step(n)
		case "g":
			var i int
			if len(fields) < 2 {
				err = fmt.Errorf("g needs a pattern number")
				break
			}
			if i, err = strconv.Atoi(fields[1]); err == nil {
				err = v.Load(i - 1)
			}
		case "q":
			return nil
		default:
			fmt.Fprintln(out, help)
			continue
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		show(out, v)
	}
}

func show(out io.Writer, v *sss.Viewer) {
	fmt.Fprintln(out, v.Ships[v.Index].String())
	fmt.Fprintln(out, v.Status())
	fmt.Fprint(out, v.Frame())
}
