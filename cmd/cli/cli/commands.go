package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/docs"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/pkg/cmd"
	"github.com/spf13/cobra"
)

var (
	markdown     bool
	readmeTmpl   string
	readmeOutput string
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List registered commands and load warnings",
	Args:  cobra.NoArgs,
	RunE:  runCommands,
}

var readmeCmd = &cobra.Command{
	Use:   "readme",
	Short: "Render the command list into a README template",
	Args:  cobra.NoArgs,
	RunE:  runReadme,
}

func init() {
	commandsCmd.Flags().BoolVar(&markdown, "markdown", false, "print Markdown sections instead of a table")
	readmeCmd.Flags().StringVar(&readmeTmpl, "template", "README.md.tmpl", "template path")
	readmeCmd.Flags().StringVar(&readmeOutput, "out", "README.md", "output path")
	rootCmd.AddCommand(commandsCmd, readmeCmd)
}

func runCommands(c *cobra.Command, _ []string) error {
	s, err := openSession(c.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	reg := s.dispatcher.Registry()
	out := c.OutOrStdout()
	if markdown {
		fmt.Fprint(out, docs.CommandSections(reg, s.cfg.Prefix, config.CategoryWeights))
	} else {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCATEGORY\tLEVEL\tALIASES\tDESCRIPTION")
		for _, e := range reg.All() {
			res, err := cmd.Resolve(e.Command, nil)
			level := "-"
			if err == nil {
				level = permission.Name(res.Permission)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Name, e.Category, level, strings.Join(reg.AliasesOf(e.Name), ","), e.Command.Desc())
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(s.warnings) > 0 {
		fmt.Fprintf(out, "\n%d warning(s):\n", len(s.warnings))
		for _, w := range s.warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	return nil
}

func runReadme(c *cobra.Command, _ []string) error {
	s, err := openSession(c.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	sections := docs.CommandSections(s.dispatcher.Registry(), s.cfg.Prefix, config.CategoryWeights)
	if err := docs.UpdateReadme(readmeTmpl, readmeOutput, sections); err != nil {
		return err
	}
	s.log.Info().Str("path", readmeOutput).Msg("README updated with current commands")
	return nil
}
