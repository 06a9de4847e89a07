package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spacemeshos/go-merklediff/merkle"
)

func (a *app) treeCmd() *cobra.Command {
	var (
		save      string
		hierarchy bool
	)
	cmd := &cobra.Command{
		Use:   "tree [flags] FILE",
		Short: "build the hash tree of FILE and print or save it",
		Long: `tree prints one line per node: index, depth, offset, size, digest and children.
With --save the tree is written to a file that can be passed to --tree later, so that
a large file does not have to be hashed again.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()
			// a saved tree is always built from the file
			cfg.Tree = ""

			f, err := a.fs.Open(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", merkle.ErrStream, err)
			}
			defer f.Close()
			tree, err := a.buildTree(cfg, logger, f)
			if err != nil {
				return err
			}
			switch {
			case save != "":
				var buf bytes.Buffer
				if err := merkle.WriteSnapshot(&buf, tree); err != nil {
					return err
				}
				if err := a.writeFile(save, &buf); err != nil {
					return fmt.Errorf("save tree to %s: %w", save, err)
				}
				return nil
			case hierarchy:
				return merkle.FprintHierarchy(a.stdout, tree)
			default:
				return merkle.Fprint(a.stdout, tree)
			}
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "write the tree to the file instead of printing it")
	cmd.Flags().BoolVar(&hierarchy, "hierarchy", false, "print the nodes depth-first, indented by level")
	markCommandFlag(cmd.Flags(), "save")
	markCommandFlag(cmd.Flags(), "hierarchy")
	return cmd
}
