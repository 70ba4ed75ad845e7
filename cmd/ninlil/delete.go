package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ninlil/pkg/tumblr"
	"ninlil/pkg/ui"
)

var (
	deleteID    string
	deleteType  string
	deleteStart string
	deleteEnd   string
	deleteYes   bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <blog>",
	Short: "Delete one post, or every post of a type in a date range",
	Long: `With --id, deletes that single post. Otherwise lists the posts of --type
published in [--start, --end) and, only when --yes is given, deletes them.
An --end date is always required for range deletes.`,
	Example: `  ninlil delete example --id 123456789
  ninlil delete example --type photo --start 2015-01-01 --end 2016-01-01
  ninlil delete example --type photo --end 2016-01-01 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteID, "id", "", "ID of a single post to delete")
	deleteCmd.Flags().StringVar(&deleteType, "type", "", "post type to delete (empty for every type)")
	deleteCmd.Flags().StringVar(&deleteStart, "start", "", "first day to include (YYYY-MM-DD)")
	deleteCmd.Flags().StringVar(&deleteEnd, "end", "", "first day to exclude (YYYY-MM-DD)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete instead of listing")
	deleteCmd.MarkFlagsMutuallyExclusive("id", "type")
	deleteCmd.MarkFlagsMutuallyExclusive("id", "start")
	deleteCmd.MarkFlagsMutuallyExclusive("id", "end")
}

func runDelete(cmd *cobra.Command, args []string) error {
	blog := tumblr.NormalizeBlog(args[0])

	var r tumblr.DateRange
	if deleteID == "" {
		if !tumblr.ValidPostType(deleteType) {
			return fmt.Errorf("unknown post type %q", deleteType)
		}
		var err error
		if r, err = tumblr.ParseDateRange(deleteStart, deleteEnd); err != nil {
			return err
		}
		if r.End.IsZero() {
			return errors.New("--end is required when deleting by date range")
		}
	}

	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	signed, err := signedClient(ctx, cfg, log, blog)
	if err != nil {
		return err
	}
	client := tumblr.NewClient(signed, cfg, log)

	if deleteID != "" {
		if !client.DeletePost(ctx, blog, deleteID) {
			return fmt.Errorf("post %s was not deleted", deleteID)
		}
		ui.PrintSuccess(fmt.Sprintf("✓ Deleted post %s", deleteID))
		return nil
	}

	if !deleteYes {
		posts, err := client.QueryPosts(ctx, blog, deleteType, r)
		if err != nil {
			return err
		}
		ui.PrintHighlight(fmt.Sprintf("%d post(s) in %s would be deleted:", len(posts), r.String()))
		for _, post := range posts {
			fmt.Fprintf(ui.Out, "  %s %s %s %s\n", ui.Dim("-"), post.Identifier(), post.Time().Format(tumblr.DateLayout), ui.Dim(post.PostURL))
		}
		ui.PrintWarning("Nothing was deleted. Re-run with --yes to delete these posts.")
		return nil
	}

	deleted, failed, err := client.DeletePosts(ctx, blog, deleteType, r)
	ui.PrintDeleteSummary(deleted, failed)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d post(s) could not be deleted", failed)
	}
	return nil
}
