package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QTest-hq/jjsast/internal/config"
	"github.com/QTest-hq/jjsast/internal/db"
	"github.com/QTest-hq/jjsast/internal/nats"
	"github.com/QTest-hq/jjsast/internal/persist"
)

// remote is the database, plus NATS when NATS_URL is set
type remote struct {
	conn   *db.DB
	store  *db.Store
	events *nats.Client
}

func openRemote(ctx context.Context) (*remote, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log.Debug().Str("database", maskConnectionString(cfg.DatabaseURL)).Msg("connecting")
	conn, err := db.New(ctx, cfg.DatabaseURL, db.WithMaxConns(2))
	if err != nil {
		return nil, err
	}
	r := &remote{conn: conn, store: db.NewStore(conn)}
	if err := r.store.Migrate(ctx); err != nil {
		r.Close()
		return nil, err
	}

	if cfg.NATSURL != "" {
		r.events, err = nats.NewClient(cfg.NATSURL)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if err := r.events.SetupStreams(ctx); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *remote) Close() {
	if r.events != nil {
		r.events.Close()
	}
	r.conn.Close()
}

// announce publishes e when NATS is configured. Failures are logged only;
// the database is the source of truth.
func (r *remote) announce(ctx context.Context, e nats.SnapshotEvent) {
	if r.events == nil {
		return
	}
	if err := r.events.PublishSnapshotEvent(ctx, e); err != nil {
		log.Warn().Err(err).Str("snapshot_id", e.SnapshotID).Msg("failed to publish snapshot event")
	}
}

func pushCmd(o *rootOptions) *cobra.Command {
	var (
		snapshot string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Store a snapshot in the database and announce it",
		Long: `Compile the project (or read --snapshot) and store the snapshot in DATABASE_URL.
When NATS_URL is set, a saved event is published so running API servers reload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				snap *persist.Snapshot
				err  error
			)
			if snapshot != "" {
				snap, err = persist.ReadFile(snapshot, persist.FormatFor(snapshot))
				if err == nil && name != "" {
					snap.Name = name
				}
			} else {
				var cfg *config.ProjectConfig
				if cfg, err = o.project(); err == nil {
					snap, err = o.compileSnapshot(ctx, cfg, name)
				}
			}
			if err != nil {
				return err
			}

			r, err := openRemote(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			info, err := r.store.SaveSnapshot(ctx, snap)
			if err != nil {
				return err
			}
			e := nats.SnapshotEvent{
				Kind:       nats.EventSaved,
				SnapshotID: info.ID.String(),
				Name:       info.Name,
				Methods:    info.MethodCount,
			}
			if info.SourceRevision != nil {
				e.SourceRevision = *info.SourceRevision
			}
			r.announce(ctx, e)

			log.Info().Str("id", info.ID.String()).Str("name", info.Name).Int("methods", info.MethodCount).Msg("snapshot pushed")
			fmt.Fprintln(cmd.OutOrStdout(), info.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Push this snapshot file instead of compiling")
	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: project directory name)")
	return cmd
}

func pullCmd(o *rootOptions) *cobra.Command {
	var (
		out    string
		name   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "pull [snapshot-id]",
		Short: "Fetch a stored snapshot into a file",
		Long:  `Fetch the snapshot with the given ID, or the latest one stored under --name.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := o.project()
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = o.resolve(cfg.Snapshot.Path)
			}
			f := persist.FormatFor(path)
			if format != "" {
				if f, err = persist.ParseFormat(format); err != nil {
					return err
				}
			}

			r, err := openRemote(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			var snap *persist.Snapshot
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid snapshot ID: %w", err)
				}
				snap, err = r.store.GetSnapshot(ctx, id)
				if err != nil {
					return err
				}
			} else {
				if snap, err = r.store.LatestSnapshot(ctx, o.snapshotName(cfg, name)); err != nil {
					return err
				}
			}
			if snap == nil {
				return db.ErrNotFound
			}

			if err := persist.WriteFile(path, snap, f); err != nil {
				return err
			}
			log.Info().Str("id", snap.ID).Str("path", path).Msg("snapshot pulled")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Destination file (default: snapshot.path from the project file)")
	cmd.Flags().StringVar(&name, "name", "", "Snapshot name for the latest lookup (default: project directory name)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Snapshot format (yaml, json); default by extension")
	return cmd
}

func snapshotsCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snap"},
		Short:   "Manage stored snapshots",
	}

	cmd.AddCommand(snapshotsListCmd(o))
	cmd.AddCommand(snapshotsDeleteCmd(o))

	return cmd
}

func snapshotsListCmd(o *rootOptions) *cobra.Command {
	var (
		name   string
		limit  int
		offset int
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutput(output)
			if err != nil {
				return err
			}
			if limit <= 0 || limit > 100 {
				limit = 20
			}

			r, err := openRemote(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			infos, err := r.store.ListSnapshots(cmd.Context(), name, limit, offset)
			if err != nil {
				return err
			}

			return printValue(cmd.OutOrStdout(), format, infos, func(tw *tableWriter) {
				if len(infos) == 0 {
					tw.row("No snapshots found.")
					return
				}
				tw.row("ID", "NAME", "REVISION", "TYPES", "METHODS", "CREATED")
				for _, info := range infos {
					rev := "-"
					if info.SourceRevision != nil {
						rev = *info.SourceRevision
					}
					tw.row(info.ID, info.Name, rev, info.TypeCount, info.MethodCount,
						info.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				}
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Only snapshots with this name")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of snapshots")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many snapshots")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, yaml, json)")
	return cmd
}

func snapshotsDeleteCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <snapshot-id>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid snapshot ID: %w", err)
			}

			r, err := openRemote(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.store.DeleteSnapshot(cmd.Context(), id); err != nil {
				return err
			}
			r.announce(cmd.Context(), nats.SnapshotEvent{Kind: nats.EventDeleted, SnapshotID: id.String()})

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
}
