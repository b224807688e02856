package cli

import (
	"fmt"
	"strings"

	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <command line>",
	Short: "Execute one command line",
	Example: `  botcmd run help money
  botcmd run --member 42:bob money send "<@42>" 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLine,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Reads command lines from stdin. Answers to confirmations such as
"yes" go to the pending question. Type exit to leave.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(runCmd, replCmd)
}

func runLine(c *cobra.Command, args []string) error {
	s, err := openSession(c.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	out := s.console.Execute(c.Context(), strings.Join(args, " "))
	switch out.State {
	case cmd.NotFound, cmd.ResolveFailed, cmd.Denied, cmd.UserNotFound, cmd.HandlerFailed:
		return fmt.Errorf("command %s", out.State)
	}
	return nil
}

func runRepl(c *cobra.Command, _ []string) error {
	s, err := openSession(c.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(c.OutOrStdout(), "Type %shelp to list commands, exit to quit.\n", s.cfg.Prefix)
	return s.console.Run(c.Context(), c.InOrStdin())
}
