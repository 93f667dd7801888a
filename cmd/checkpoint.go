package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkpointNote string

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Manage document checkpoints",
}

var checkpointCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a point-in-time copy of the document",
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

		cp, err := env.Docs.CreateCheckpoint(checkpointNote)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %d pages, %d bytes\n", cp.ID, cp.Pages, cp.Size)
		return nil
	},
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints, newest first",
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

		cps, err := env.Docs.ListCheckpoints()
		if err != nil {
			return err
		}
		if len(cps) == 0 {
			fmt.Println("no checkpoints")
			return nil
		}
		for _, cp := range cps {
			note := cp.Note
			if note != "" {
				note = "  " + note
			}
			fmt.Printf("%s  %s  %d pages%s\n",
				cp.ID, cp.CreatedAt.Format("2006-01-02 15:04:05"), cp.Pages, note)
		}
		return nil
	},
}

var checkpointRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Replace the live document with a checkpoint",
	Args:  cobra.ExactArgs(1),
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

		if err := env.Docs.RestoreCheckpoint(args[0]); err != nil {
			return err
		}
		fmt.Println("restored", args[0])
		return nil
	},
}

func init() {
	checkpointCreateCmd.Flags().StringVarP(&checkpointNote, "note", "n", "", "Note recorded with the checkpoint")
	checkpointCmd.AddCommand(checkpointCreateCmd)
	checkpointCmd.AddCommand(checkpointListCmd)
	checkpointCmd.AddCommand(checkpointRestoreCmd)
	rootCmd.AddCommand(checkpointCmd)
}
