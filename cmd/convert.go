package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"esmconvert/internal/adapter/outbound/esmodule"
	"esmconvert/internal/application/common/slogger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// convertCmd implements: esmconvert convert [files...] [--module-path name] [-o out].
func newConvertCmd() *cobra.Command {
	var modulePath string
	var outPath string
	var timeout time.Duration
	var concurrency int

	cmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Convert ES modules to CommonJS",
		Long: `Convert ES modules to CommonJS-style require/exports code.

With no arguments the module source is read from stdin and the converted text
is written to stdout, or to the path given with --out. With one file argument
the file is converted the same way. With multiple file arguments --out must
name a directory; each module is converted concurrently and written there
under its base name. Conversion runs in-process without the API server, the
job queue, or the database.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				if modulePath != "" {
					return fmt.Errorf("--module-path applies to a single module; got %d files", len(args))
				}
				return runBatchConvert(args, outPath, timeout, concurrency)
			}

			filePath := ""
			if len(args) > 0 {
				filePath = args[0]
			}
			return runConvert(filePath, modulePath, outPath, timeout)
		},
	}

	cmd.Flags().StringVar(&modulePath, "module-path", "", "Module path used in diagnostics (defaults to the file path)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path: a file for single input, a directory for multiple")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Conversion timeout per module")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Concurrent conversions when converting multiple files")

	return cmd
}

// runConvert performs: read -> transform -> write.
func runConvert(filePath, modulePath, outPath string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	source, err := readSource(filePath)
	if err != nil {
		return err
	}

	if modulePath == "" {
		modulePath = filePath
	}

	result, err := esmodule.Transform(ctx, source, esmodule.Options{ModulePath: modulePath})
	if err != nil {
		return err
	}

	return writeConverted(result, outPath)
}

// runBatchConvert converts the given files concurrently into outDir. The
// first failure cancels the remaining conversions.
func runBatchConvert(paths []string, outDir string, timeout time.Duration, concurrency int) error {
	if outDir == "" {
		return fmt.Errorf("converting multiple files requires --out <directory>")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		base := filepath.Base(path)
		if prev, ok := seen[base]; ok {
			return fmt.Errorf("output name %s is claimed by both %s and %s", base, prev, path)
		}
		seen[base] = path
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(concurrency)
	for _, path := range paths {
		g.Go(func() error {
			if err := convertFileInto(gctx, path, outDir, timeout); err != nil {
				return fmt.Errorf("convert %s: %w", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slogger.InfoNoCtx("Converted modules", slogger.Fields{
		"count":   len(paths),
		"out_dir": outDir,
	})
	return nil
}

func convertFileInto(ctx context.Context, path, outDir string, timeout time.Duration) error {
	fileCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	source, err := readSource(path)
	if err != nil {
		return err
	}

	result, err := esmodule.Transform(fileCtx, source, esmodule.Options{ModulePath: path})
	if err != nil {
		return err
	}

	return writeConverted(result, filepath.Join(outDir, filepath.Base(path)))
}

// readSource reads the module source from the file, or from stdin when no
// file is given.
func readSource(filePath string) ([]byte, error) {
	if filePath == "" {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return src, nil
	}

	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return src, nil
}

// writeConverted writes the converted module text without altering its bytes.
func writeConverted(result *esmodule.Result, outPath string) error {
	if outPath == "" {
		_, err := os.Stdout.WriteString(result.Output)
		return err
	}

	if err := os.WriteFile(outPath, []byte(result.Output), 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slogger.InfoNoCtx("Wrote converted module", slogger.Fields{
		"path":      outPath,
		"rewritten": result.Rewritten,
		"requires":  result.RequireCount,
	})
	return nil
}

func init() { //nolint:gochecknoinits // required by cobra for command registration
	rootCmd.AddCommand(newConvertCmd())
}
