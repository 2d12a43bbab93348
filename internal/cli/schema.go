package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
)

// SchemaCmd outputs machine-readable command tree as JSON
type SchemaCmd struct {
	Command string `arg:"" optional:"" help:"Command path to show schema for (e.g., 'secret get')"`
}

// SchemaNode represents a node in the command tree
type SchemaNode struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Help     string        `json:"help,omitempty"`
	Children []*SchemaNode `json:"commands,omitempty"`
	Flags    []*SchemaFlag `json:"flags,omitempty"`
	Args     []*SchemaArg  `json:"args,omitempty"`
}

// SchemaFlag represents a command flag
type SchemaFlag struct {
	Name    string   `json:"name"`
	Help    string   `json:"help,omitempty"`
	Type    string   `json:"type"`
	Default string   `json:"default,omitempty"`
	Enum    []string `json:"enum,omitempty"`
	Short   string   `json:"short,omitempty"`
	Env     string   `json:"env,omitempty"`
}

// SchemaArg represents a positional argument
type SchemaArg struct {
	Name      string `json:"name"`
	Help      string `json:"help,omitempty"`
	Required  bool   `json:"required,omitempty"`
	Completes string `json:"completes,omitempty"`
}

// Run executes the schema command
func (cmd *SchemaCmd) Run(ctx *kong.Context) error {
	node := ctx.Model.Node
	if cmd.Command != "" {
		var err error
		if node, err = findNodeByPath(node, cmd.Command); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(ctx.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(buildSchemaNode(node))
}

// buildSchemaNode recursively builds schema from Kong node, leaving out
// hidden commands and the help flag
func buildSchemaNode(node *kong.Node) *SchemaNode {
	schema := &SchemaNode{
		Name: node.Name,
		Type: nodeTypeString(node.Type),
		Help: node.Help,
	}

	for _, flag := range node.Flags {
		if flag.Name == "help" {
			continue
		}
		sf := &SchemaFlag{
			Name:    flag.Name,
			Help:    flag.Help,
			Type:    "string",
			Default: flag.Default,
		}
		if flag.Value != nil && flag.Value.Target.IsValid() {
			sf.Type = fmt.Sprintf("%T", flag.Value.Target.Interface())
		}
		if len(flag.Envs) > 0 {
			sf.Env = flag.Envs[0]
		}
		if flag.Short != 0 {
			sf.Short = string(flag.Short)
		}
		if flag.Enum != "" {
			sf.Enum = strings.Split(flag.Enum, ",")
		}
		schema.Flags = append(schema.Flags, sf)
	}

	for _, arg := range node.Positional {
		schema.Args = append(schema.Args, &SchemaArg{
			Name:      arg.Name,
			Help:      arg.Help,
			Required:  arg.Required,
			Completes: arg.Tag.Get("predictor"),
		})
	}

	for _, child := range node.Children {
		if child.Hidden {
			continue
		}
		schema.Children = append(schema.Children, buildSchemaNode(child))
	}

	return schema
}

// findNodeByPath walks the node tree to find a specific command path
func findNodeByPath(root *kong.Node, path string) (*kong.Node, error) {
	current := root
	for _, part := range strings.Fields(path) {
		var next *kong.Node
		for _, child := range current.Children {
			if child.Name == part {
				next = child
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("command not found: %s", path)
		}
		current = next
	}
	return current, nil
}

func nodeTypeString(t kong.NodeType) string {
	switch t {
	case kong.ApplicationNode:
		return "application"
	case kong.CommandNode:
		return "command"
	case kong.ArgumentNode:
		return "argument"
	default:
		return "unknown"
	}
}
