package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blang-tool/internal/blang"
	"blang-tool/internal/config"
	"blang-tool/internal/decrypt"
	"blang-tool/internal/document"
	"blang-tool/internal/patch"
	"blang-tool/internal/resources"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// sourceFlags selects where a table comes from: a positional .blang path, or
// an entry of a .resources container.
type sourceFlags struct {
	container string
	entry     string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.container, "container", "", "Read the table from this .resources container")
	cmd.Flags().StringVar(&f.entry, "entry", "", "Name of the table inside --container")
}

// split separates the table path from the remaining positional arguments.
// With --container set no table path is expected.
func (f *sourceFlags) split(args []string, rest int) (string, []string, error) {
	if f.container != "" {
		if f.entry == "" {
			return "", nil, errors.New("--entry is required with --container")
		}
		if len(args) != rest {
			return "", nil, fmt.Errorf("expected %d argument(s) with --container, got %d", rest, len(args))
		}
		return "", args, nil
	}
	if len(args) != rest+1 {
		return "", nil, fmt.Errorf("expected %d argument(s), got %d", rest+1, len(args))
	}
	return args[0], args[1:], nil
}

// openSession loads the selected table into a new session.
func (f *sourceFlags) openSession(ctx context.Context, cfg *config.Config, tablePath string) (*document.Session, error) {
	var (
		data []byte
		name = tablePath
		err  error
	)

	if f.container != "" {
		name = f.entry
		data, err = readContainerEntry(f.container, cfg.Suffix, f.entry)
	} else {
		if !document.Accepts(tablePath) {
			log.Warn().Str("path", tablePath).Msg("Unexpected file extension, reading as a table anyway")
		}
		data, err = os.ReadFile(tablePath)
	}
	if err != nil {
		return nil, err
	}

	s := document.NewSession(decrypt.NewCommand(cfg.DecryptCommand, cfg.DecryptTimeout))
	if err := s.LoadTable(ctx, data, languageOf(name)); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	log.Debug().Str("document", s.Title()).Msg("Opened table")
	return s, nil
}

func readContainerEntry(path, suffix, entry string) ([]byte, error) {
	tables, err := readContainer(path, suffix)
	if err != nil {
		return nil, err
	}
	data, err := resources.Lookup(tables, entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func readContainer(path, suffix string) (map[string][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tables, err := resources.ExtractByExtension(data, suffix)
	if err != nil {
		return nil, fmt.Errorf("read container %s: %w", path, err)
	}
	return tables, nil
}

func readPatch(path string) (patch.Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return patch.Patch{}, err
	}
	p, err := patch.Decode(data)
	if err != nil {
		return patch.Patch{}, fmt.Errorf("read patch %s: %w", path, err)
	}
	return p, nil
}

// languageOf derives a table's language from its file or entry name,
// e.g. "strings/english.blang" is "english".
func languageOf(name string) string {
	base := filepath.Base(filepath.FromSlash(name))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("bytes", len(data)).Msg("Wrote file")
	return nil
}

func writePatch(cmd *cobra.Command, path string, p patch.Patch) error {
	data, err := patch.Encode(p)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	return writeOutput(cmd, path, data)
}

func dumpCmd() *cobra.Command {
	var (
		src    sourceFlags
		output string
		filter string
	)
	cmd := &cobra.Command{
		Use:   "dump [table.blang]",
		Short: "Print every string of a table as patch JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tablePath, _, err := src.split(args, 0)
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			s, err := src.openSession(ctx, config.Load(), tablePath)
			if err != nil {
				return err
			}
			return writePatch(cmd, output, patch.FromTable(&blang.StringTable{Entries: s.Filter(filter)}))
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default stdout)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only dump strings whose identifier or text contains this")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <container.resources>",
		Short: "List the string tables embedded in a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			names, err := resources.List(data, cfg.Suffix)
			if err != nil {
				return fmt.Errorf("read container %s: %w", args[0], err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <container.resources> <output-dir>",
		Short: "Write every embedded string table to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			tables, err := readContainer(args[0], cfg.Suffix)
			if err != nil {
				return err
			}
			return extractTables(resources.Records(tables), args[1])
		},
	}
}

func extractTables(records []resources.Record, outputDir string) error {
	for _, r := range records {
		rel := filepath.FromSlash(strings.TrimLeft(r.Name, "/"))
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("refusing to write %q outside %s", r.Name, outputDir)
		}
		dest := filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", dest, err)
		}
		if err := os.WriteFile(dest, r.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		log.Debug().Str("path", dest).Int("bytes", len(r.Data)).Msg("Extracted table")
	}
	log.Info().Int("tables", len(records)).Str("dir", outputDir).Msg("Extraction complete")
	return nil
}

func applyCmd() *cobra.Command {
	var (
		src         sourceFlags
		output      string
		patchOutput string
	)
	cmd := &cobra.Command{
		Use:   "apply [table.blang] <patch.json>",
		Short: "Merge a patch into a table and write the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" && patchOutput == "" {
				return errors.New("nothing to write: set --output and/or --patch-output")
			}
			tablePath, rest, err := src.split(args, 1)
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			s, err := src.openSession(ctx, config.Load(), tablePath)
			if err != nil {
				return err
			}
			p, err := readPatch(rest[0])
			if err != nil {
				return err
			}
			if err := s.LoadPatch(p); err != nil {
				return err
			}

			if patchOutput != "" {
				exported, err := s.SavePatch()
				if err != nil {
					return err
				}
				if err := writePatch(cmd, patchOutput, exported); err != nil {
					return err
				}
			}
			if output != "" {
				data, err := s.Save()
				if err != nil {
					return err
				}
				if err := writeOutput(cmd, output, data); err != nil {
					return err
				}
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the merged .blang table")
	cmd.Flags().StringVar(&patchOutput, "patch-output", "", "Path of the patch holding only modified strings")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		src    sourceFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export [table.blang] <patch.json>",
		Short: "Merge a patch into a table and print only the modified strings",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tablePath, rest, err := src.split(args, 1)
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			s, err := src.openSession(ctx, config.Load(), tablePath)
			if err != nil {
				return err
			}
			p, err := readPatch(rest[0])
			if err != nil {
				return err
			}
			if err := s.LoadPatch(p); err != nil {
				return err
			}
			exported, err := s.SavePatch()
			if err != nil {
				return err
			}
			return writePatch(cmd, output, exported)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default stdout)")
	return cmd
}

func newCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "new <patch.json>",
		Short: "Build a new table from a patch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPatch(args[0])
			if err != nil {
				return err
			}
			if len(p.Strings) == 0 {
				return fmt.Errorf("%s: %w", args[0], document.ErrEmptyTable)
			}

			s := document.NewSession(nil)
			s.NewTable()
			if err := s.LoadPatch(p); err != nil {
				return err
			}
			data, err := s.Save()
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the new .blang table")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
