package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/database"
)

// expected columns per table
var schema = map[string][]string{
	"boards":         {"id", "name", "owner_id", "is_locked", "is_public", "canvas_data", "created_at", "updated_at"},
	"board_members":  {"board_id", "user_id", "role", "joined_at"},
	"board_versions": {"id", "board_id", "version_number", "canvas_data", "created_by", "created_at"},
}

var tableOrder = []string{"boards", "board_members", "board_versions"}

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed, color.Bold)
)

func checkDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-db",
		Short: "Connect to Postgres, migrate and verify the board schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connected to %s:%s/%s\n\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

			missing := 0
			for _, table := range tableOrder {
				cols, err := columns(db, table)
				if err != nil {
					return fmt.Errorf("inspect %s: %w", table, err)
				}
				fmt.Fprintf(out, "%s (%d columns)\n", table, len(cols))
				for _, want := range schema[table] {
					if _, ok := cols[want]; !ok {
						red.Fprintf(out, "  ✗ missing column: %s\n", want)
						missing++
					}
				}
			}

			if missing > 0 {
				return fmt.Errorf("%d column(s) missing", missing)
			}
			green.Fprintln(out, "\n✓ Schema OK")
			return nil
		},
	}
}

func columns(db *gorm.DB, table string) (map[string]string, error) {
	type columnInfo struct {
		ColumnName string
		DataType   string
	}
	var rows []columnInfo
	err := db.Raw(`
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = ?`, table).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	cols := make(map[string]string, len(rows))
	for _, r := range rows {
		cols[r.ColumnName] = r.DataType
	}
	return cols, nil
}
