package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"blang-tool/internal/blang"
	"blang-tool/internal/config"
	"blang-tool/internal/decrypt"
	"blang-tool/internal/document"
	"blang-tool/internal/filewalker"
	"blang-tool/internal/graph"
	"blang-tool/internal/resources"
	"blang-tool/internal/store"
	"blang-tool/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// indexedSource is one container, or one directory of loose tables, with the
// tables found in it.
type indexedSource struct {
	path    string
	records []resources.Record
	tables  map[string]*blang.StringTable
}

func indexCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "index <directory>",
		Short: "Record containers, tables and string identifiers in Neo4j",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(args[0], workers)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent files (default WORKER_COUNT)")
	return cmd
}

// runIndex handles the `index` command.
func runIndex(root string, workers int) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if workers <= 0 {
		workers = cfg.WorkerCount
	}

	entries, err := filewalker.NewWalker(cfg.Suffix).Walk(root, filewalker.KindContainer, filewalker.KindTable)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Warn().Str("root", root).Msg("No containers or tables found")
		return nil
	}

	neo4jDriver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer neo4jDriver.Close(ctx)

	inventory := graph.NewInventory(neo4jDriver)
	if err := inventory.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}

	d := decrypt.NewCommand(cfg.DecryptCommand, cfg.DecryptTimeout)
	pool := worker.NewPool("index", workers, func(ctx context.Context, entry filewalker.FileEntry) (indexedSource, error) {
		return loadSource(ctx, d, cfg.Suffix, entry)
	})

	tasks := pool.Execute(ctx, entries)

	failed := worker.Errors(tasks)
	for _, task := range failed {
		log.Warn().Err(task.Err).Str("path", task.Input.Path).Msg("Skipping unreadable file")
	}

	var recorded int
	for _, task := range tasks {
		if task.Err != nil {
			continue
		}
		if err := recordSource(ctx, inventory, task.Result); err != nil {
			return err
		}
		recorded++
	}

	log.Info().
		Int("files", len(entries)).
		Int("recorded", recorded).
		Int("failed", len(failed)).
		Msg("Indexing complete")
	return ctx.Err()
}

// loadSource reads one discovered file. Loose tables are grouped under their
// directory so the graph shape matches that of a container.
func loadSource(ctx context.Context, d decrypt.Decrypter, suffix string, entry filewalker.FileEntry) (indexedSource, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return indexedSource{}, err
	}

	var src indexedSource
	switch entry.Kind {
	case filewalker.KindContainer:
		tables, err := resources.ExtractByExtension(data, suffix)
		if err != nil {
			return indexedSource{}, fmt.Errorf("read container %s: %w", entry.Path, err)
		}
		src = indexedSource{path: entry.Path, records: resources.Records(tables)}
	default:
		src = indexedSource{
			path:    filepath.Dir(entry.Path),
			records: []resources.Record{{Name: filepath.Base(entry.Path), Data: data}},
		}
	}

	src.tables = make(map[string]*blang.StringTable, len(src.records))
	for _, r := range src.records {
		table, err := document.ParseTable(ctx, d, r.Data, languageOf(r.Name))
		if err != nil {
			log.Warn().Err(err).Str("source", src.path).Str("table", r.Name).Msg("Skipping unreadable table")
			continue
		}
		src.tables[r.Name] = table
	}
	return src, nil
}

func recordSource(ctx context.Context, inventory *graph.Inventory, src indexedSource) error {
	if err := inventory.RecordContainer(ctx, src.path, src.records); err != nil {
		return err
	}
	for _, r := range src.records {
		table, ok := src.tables[r.Name]
		if !ok {
			continue
		}
		if err := inventory.RecordTable(ctx, graph.TableKey(src.path, r.Name), table); err != nil {
			return err
		}
	}
	return nil
}

func pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <language> <patch.json>",
		Short: "Store a patch in PostgreSQL under a language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPatch(args[1])
			if err != nil {
				return err
			}

			ctx, cancel := setupContext()
			defer cancel()

			patchStore, closeStore, err := openPatchStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := patchStore.Push(ctx, args[0], p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d strings for %s\n", n, args[0])
			return nil
		},
	}
}

func pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <language> <patch.json>",
		Short: "Write the stored patch of a language to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			patchStore, closeStore, err := openPatchStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			p, err := patchStore.Pull(ctx, args[0])
			if err != nil {
				return err
			}
			return writePatch(cmd, args[1], p)
		},
	}
}

func openPatchStore(ctx context.Context) (*store.PatchStore, func(), error) {
	pgPool, err := connectPostgres(ctx, config.Load())
	if err != nil {
		return nil, nil, err
	}

	patchStore := store.NewPatchStore(pgPool)
	if err := patchStore.EnsureSchema(ctx); err != nil {
		pgPool.Close()
		return nil, nil, err
	}
	return patchStore, pgPool.Close, nil
}
