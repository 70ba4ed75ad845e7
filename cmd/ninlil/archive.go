package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ninlil/pkg/storage"
	"ninlil/pkg/tumblr"
	"ninlil/pkg/ui"
	"ninlil/pkg/web"
)

var (
	startDate  string
	endDate    string
	outputDir  string
	concurrent int
	maxPages   int
)

var archiveCmd = &cobra.Command{
	Use:   "archive <blog>",
	Short: "Download a blog's photos into a zip archive",
	Long: `Downloads every photo of the blog's photo posts published in [--start, --end)
into one zip file. Each entry is named after its post and carries the post's
publish time. Dates are YYYY-MM-DD in UTC; an omitted bound is open.

The blog must be authorized first with 'ninlil auth login <blog>'.`,
	Example: `  ninlil archive example --start 2024-01-01 --end 2024-02-01
  ninlil archive example.tumblr.com --output ./backups --concurrent 5`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().StringVar(&startDate, "start", "", "first day to include (YYYY-MM-DD)")
	archiveCmd.Flags().StringVar(&endDate, "end", "", "first day to exclude (YYYY-MM-DD)")
	archiveCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory receiving the archive")
	archiveCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of parallel photo downloads")
	archiveCmd.Flags().IntVar(&maxPages, "max-pages", -1, "cap on post listing pages (0 for no cap)")
}

func runArchive(cmd *cobra.Command, args []string) error {
	blog := tumblr.NormalizeBlog(args[0])
	r, err := tumblr.ParseDateRange(startDate, endDate)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig(map[string]interface{}{
		"output":     outputDir,
		"concurrent": concurrent,
		"max-pages":  maxPages,
	})
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	signed, err := signedClient(ctx, cfg, log, blog)
	if err != nil {
		return err
	}
	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return err
	}

	ui.PrintInfo("Blog", blog)
	ui.PrintInfo("Dates", r.String())

	archiver := web.NewArchiverFactory(cfg, log)(signed)
	result, err := archiver.SavePhotos(ctx, blog, r)
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", blog, err)
	}

	if result.Path, err = store.Relocate(result.Path); err != nil {
		return err
	}

	ui.PrintArchiveSummary(result)
	return nil
}
