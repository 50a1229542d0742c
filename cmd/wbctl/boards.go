package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/database"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/store"
)

func boardsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List persisted boards, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			boards, err := store.NewGormRepository(db).ListBoards(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printBoards(cmd, boards)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum number of boards")
	return cmd
}

func printBoards(cmd *cobra.Command, boards []model.Board) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPUBLIC\tLOCKED\tUPDATED")
	for _, b := range boards {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n", b.ID, b.Name, b.IsPublic, b.IsLocked, b.UpdatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}
