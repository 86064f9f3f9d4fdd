package main

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jacoelho/sdf"
	"github.com/jacoelho/sdf/internal/xmltree"
)

func newLoadCmd(a *app) *cobra.Command {
	var flat, metadata bool
	cmd := &cobra.Command{
		Use:   "load <file|model://name>",
		Short: "Print a document with its includes expanded",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			root, err := a.load(args[0], flat)
			if err != nil {
				return err
			}
			out, err := xmltree.Indented(etree.NewDocumentWithRoot(root.XML().Copy()))
			if err != nil {
				return fmt.Errorf("serialize %s: %w", args[0], err)
			}
			if !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			if err := writef(a.stdout, "%s", out); err != nil {
				return err
			}
			if !metadata {
				return nil
			}
			meta, _ := root.Metadata()
			if err := writeln(a.stdout, "---"); err != nil {
				return err
			}
			return encodeYAML(a, metadataView{Path: meta.Path, Includes: meta.Includes})
		},
	}
	cmd.Flags().BoolVar(&flat, "flatten", true, "flatten nested models into their parents")
	cmd.Flags().BoolVar(&metadata, "metadata", false, "print where each included file was spliced")
	return cmd
}

type metadataView struct {
	Path     string              `yaml:"path"`
	Includes map[string][]string `yaml:"includes,omitempty"`
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models of the search path",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(*cobra.Command, []string) error {
			dirs, err := a.loader.ModelDirs()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(a.stdout)
			table.SetHeader([]string{"Name", "Directory", "SDF File"})
			table.SetAutoWrapText(false)
			for _, d := range dirs {
				file, err := a.loader.ResolveModel(d.Name, a.opts)
				if err != nil {
					a.logger.Debug("no loadable file", "model", d.Name, "error", err)
					file = "-"
				}
				table.Append([]string{d.Name, d.Dir, file})
			}
			table.Render()
			return nil
		},
	}
}

type treeNode struct {
	Kind     string     `yaml:"kind"`
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type,omitempty"`
	Parent   string     `yaml:"parent,omitempty"`
	Child    string     `yaml:"child,omitempty"`
	File     string     `yaml:"file,omitempty"`
	Children []treeNode `yaml:"children,omitempty"`
}

func newTreeCmd(a *app) *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "tree <file|model://name>",
		Short: "Print the worlds, models, links and joints of a document",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			root, err := a.load(args[0], flat)
			if err != nil {
				return err
			}
			tree, err := rootTree(root)
			if err != nil {
				return err
			}
			return encodeYAML(a, tree)
		},
	}
	cmd.Flags().BoolVar(&flat, "flatten", true, "flatten nested models into their parents")
	return cmd
}

func rootTree(root sdf.Root) ([]treeNode, error) {
	var out []treeNode
	for _, w := range root.Worlds() {
		node := treeNode{Kind: w.Kind().String(), Name: w.FullName()}
		models, err := w.Models()
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			child, err := modelTree(root, m)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
		out = append(out, node)
	}

	models, err := root.Models(false)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		node, err := modelTree(root, m)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func modelTree(root sdf.Root, m *sdf.Model) (treeNode, error) {
	node := treeNode{Kind: m.Kind().String(), Name: m.FullName()}
	node.File, _ = root.FindFileOf(m)

	for _, l := range m.DirectLinks() {
		node.Children = append(node.Children, treeNode{Kind: l.Kind().String(), Name: l.FullName()})
	}
	for _, j := range m.DirectJoints() {
		typ, err := j.Type()
		if err != nil {
			return treeNode{}, err
		}
		parent, err := j.ParentLink()
		if err != nil {
			return treeNode{}, err
		}
		child, err := j.ChildLink()
		if err != nil {
			return treeNode{}, err
		}
		node.Children = append(node.Children, treeNode{
			Kind:   j.Kind().String(),
			Name:   j.FullName(),
			Type:   typ,
			Parent: linkName(parent),
			Child:  linkName(child),
		})
	}
	for _, sub := range m.Models() {
		child, err := modelTree(root, sub)
		if err != nil {
			return treeNode{}, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func linkName(l sdf.Link) string {
	if l.IsWorld() {
		return l.Name()
	}
	return l.FullName()
}

type findResult struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	File string `yaml:"file,omitempty"`
}

func newFindCmd(a *app) *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "find <file|model://name> <name>",
		Short: "Locate an element by its ::-qualified name",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(_ *cobra.Command, args []string) error {
			root, err := a.load(args[0], flat)
			if err != nil {
				return err
			}
			e, err := root.FindByName(args[1])
			if err != nil {
				return err
			}
			file, _ := root.FindFileOf(e)
			return encodeYAML(a, findResult{
				Kind: e.Kind().String(),
				Name: args[1],
				Path: xmltree.Path(e.XML()),
				File: file,
			})
		},
	}
	cmd.Flags().BoolVar(&flat, "flatten", false, "flatten nested models before the lookup")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file|model://name>...",
		Short: "Load documents and report every failure",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			var result *multierror.Error
			for _, arg := range args {
				if _, err := a.load(arg, true); err != nil {
					result = multierror.Append(result, err)
					continue
				}
				if err := writef(a.stdout, "%s: ok\n", arg); err != nil {
					return err
				}
			}
			return result.ErrorOrNil()
		},
	}
}

func encodeYAML(a *app, v any) error {
	enc := yaml.NewEncoder(a.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
