// Package docs renders the command registry as Markdown.
package docs

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/keshon/botcmd/pkg/cmd"
)

// CommandSections lists every command grouped by category. weights orders
// categories, lower first; unknown categories go last.
func CommandSections(reg *cmd.Registry, prefix string, weights map[string]int) string {
	entries := reg.All()
	weight := func(cat string) int {
		if w, ok := weights[cat]; ok {
			return w
		}
		return int(^uint(0) >> 1)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		wi, wj := weight(entries[i].Category), weight(entries[j].Category)
		if wi != wj {
			return wi < wj
		}
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Name < entries[j].Name
	})

	var b strings.Builder
	current := "\x00"
	for _, e := range entries {
		if e.Category != current {
			if current != "\x00" {
				b.WriteString("\n")
			}
			current = e.Category
			title := current
			if title == "" {
				title = "Other"
			}
			fmt.Fprintf(&b, "### %s\n\n", title)
		}
		line := prefix + e.Name
		if u := cmd.Usage(e.Command); u != "" {
			line += " " + u
		}
		fmt.Fprintf(&b, "- **`%s`** - %s", line, e.Command.Desc())
		if aliases := reg.AliasesOf(e.Name); len(aliases) > 0 {
			fmt.Fprintf(&b, " (aliases: %s)", strings.Join(aliases, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Render executes a template exposing {{.CommandSections}}.
func Render(w io.Writer, tmplText string, sections string) error {
	tmpl, err := template.New("readme").Parse(tmplText)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	return tmpl.Execute(w, struct{ CommandSections string }{sections})
}

// UpdateReadme renders tmplPath into outPath.
func UpdateReadme(tmplPath, outPath, sections string) error {
	data, err := os.ReadFile(tmplPath)
	if err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := Render(f, string(data), sections); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
