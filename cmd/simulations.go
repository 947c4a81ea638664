package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsim/procsim/store"
)

var (
	simulationsDB        string // SQLite database holding stored runs
	simulationsProcessID string // Filter for list
)

// simulationsCmd groups the commands that inspect stored runs
var simulationsCmd = &cobra.Command{
	Use:   "simulations",
	Short: "Inspect simulations stored with run --db",
}

var simulationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored simulations, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withStore(cmd.Context(), func(st *store.SQLiteStore) error {
			return listSimulations(cmd.Context(), st, simulationsProcessID, cmd.OutOrStdout())
		})
	},
}

var simulationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored simulation as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(cmd.Context(), func(st *store.SQLiteStore) error {
			return showSimulation(cmd.Context(), st, args[0], cmd.OutOrStdout())
		})
	},
}

var simulationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored simulation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(cmd.Context(), func(st *store.SQLiteStore) error {
			return st.Delete(cmd.Context(), args[0])
		})
	},
}

func withStore(ctx context.Context, fn func(*store.SQLiteStore) error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, store.Config{Path: simulationsDB})
	if err != nil {
		logrus.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()
	if err := fn(st); err != nil {
		logrus.Fatalf("%v", err)
	}
}

func listSimulations(ctx context.Context, st *store.SQLiteStore, processID string, w io.Writer) error {
	sims, err := st.List(ctx, processID)
	if err != nil {
		return err
	}
	for _, s := range sims {
		pid := s.ProcessID
		if pid == "" {
			pid = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%g\t%s\n", s.ID, pid, s.Duration, s.CreatedAt.Local().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

func showSimulation(ctx context.Context, st *store.SQLiteStore, id string, w io.Writer) error {
	rec, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding simulation: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	simulationsCmd.PersistentFlags().StringVar(&simulationsDB, "db", "procsim.db", "SQLite database holding stored runs")
	simulationsListCmd.Flags().StringVar(&simulationsProcessID, "process-id", "", "Only list runs of this process")

	simulationsCmd.AddCommand(simulationsListCmd)
	simulationsCmd.AddCommand(simulationsShowCmd)
	simulationsCmd.AddCommand(simulationsDeleteCmd)
}
