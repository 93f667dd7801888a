package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devidw/rem/internal/pagetree"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Print the page tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		env, err := openEnv(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer env.Close()

		printLevel(env.Session.Nodes(), env.Session.Current(), pagetree.Root(), 0)
		return nil
	},
}

func printLevel(all []pagetree.Node, current, parent pagetree.Node, depth int) {
	for _, child := range pagetree.Children(parent, all) {
		marker := ""
		if child.ID == current.ID {
			marker = " *"
		}
		for i := 0; i < depth; i++ {
			fmt.Print("  ")
		}
		fmt.Printf("%s%s\n", child.Name, marker)
		printLevel(all, current, child, depth+1)
	}
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}
