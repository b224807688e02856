package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/keshon/botcmd/internal/config"
	"github.com/keshon/botcmd/internal/permission"
	"github.com/keshon/botcmd/pkg/cmd"
	"gopkg.in/yaml.v3"
)

// ErrInvalidYAML wraps decoding failures of a static commands file.
var ErrInvalidYAML = errors.New("invalid static commands file")

// StaticCommand is a reply-only command defined in YAML. Replies may use
// %author%, %prefix%, %name% and configured variables.
type StaticCommand struct {
	Name        string                   `yaml:"name"`
	Aliases     []string                 `yaml:"aliases"`
	Description string                   `yaml:"description"`
	Category    string                   `yaml:"category"`
	Reply       string                   `yaml:"reply"`
	Permission  string                   `yaml:"permission"`
	Subcommands map[string]StaticCommand `yaml:"subcommands"`
}

type staticFile struct {
	Commands []StaticCommand `yaml:"commands"`
}

// LoadStatic reads static commands from path. A missing path yields none.
func LoadStatic(path string) ([]StaticCommand, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseStatic(data)
}

// ParseStatic decodes a static commands document.
func ParseStatic(data []byte) ([]StaticCommand, error) {
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	for i, c := range f.Commands {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: command #%d has no name", ErrInvalidYAML, i+1)
		}
		if err := c.validate(c.Name); err != nil {
			return nil, err
		}
	}
	return f.Commands, nil
}

func (s StaticCommand) validate(path string) error {
	if s.Permission != "" {
		if _, ok := permission.Parse(s.Permission); !ok {
			return fmt.Errorf("%w: %s: unknown permission %q", ErrInvalidYAML, path, s.Permission)
		}
	}
	for name, sub := range s.Subcommands {
		if err := sub.validate(path + " " + name); err != nil {
			return err
		}
	}
	return nil
}

// Definition turns the static command into a registrable tree.
func (s StaticCommand) Definition() cmd.Definition {
	category := s.Category
	if category == "" {
		category = config.CategoryCustom
	}
	return cmd.Definition{Name: s.Name, Category: category, Command: s.node()}
}

func (s StaticCommand) node() *cmd.Command {
	c := &cmd.Command{
		Description: s.Description,
		Aliases:     s.Aliases,
	}
	if s.Reply != "" {
		c.Run = cmd.StaticReply(s.Reply)
	}
	if l, ok := permission.Parse(s.Permission); ok && s.Permission != "" {
		c.Permission = cmd.Require(l)
	}
	if len(s.Subcommands) > 0 {
		c.Subcommands = make(map[string]*cmd.Command, len(s.Subcommands))
		for name, sub := range s.Subcommands {
			c.Subcommands[name] = sub.node()
		}
	}
	return c
}
