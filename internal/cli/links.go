package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	urlFlag string
	idFlag  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your shortened URLs, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession()
		if err != nil {
			return err
		}

		if err := a.Links.FetchAll(cmd.Context()); err != nil {
			return err
		}

		links := a.Links.Links()
		if len(links) == 0 {
			fmt.Println("No URLs yet. Create your first one with \"shortlink create\".")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSHORT URL\tORIGINAL\tCLICKS\tCREATED")
		for _, l := range links {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				l.ID, l.ShortURL, truncate(l.OriginalURL, 60), l.Clicks,
				l.CreatedAt.Format("2006-01-02"))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\n%d of %d URLs used.\n", a.Links.TotalCount(), a.Links.Limit())
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Shorten a URL.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession()
		if err != nil {
			return err
		}

		// Refresh counts first so the quota check runs against the
		// server's latest view, the same order the dashboard uses.
		if err := a.Links.FetchAll(cmd.Context()); err != nil {
			return err
		}

		link, err := a.Links.Create(cmd.Context(), urlFlag)
		if err != nil {
			return err
		}

		fmt.Printf("%s -> %s\n", link.ShortURL, link.OriginalURL)
		fmt.Printf("%d of %d URLs used.\n", a.Links.TotalCount(), a.Links.Limit())
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one of your shortened URLs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession()
		if err != nil {
			return err
		}

		if err := a.Links.FetchAll(cmd.Context()); err != nil {
			return err
		}
		if err := a.Links.Delete(cmd.Context(), idFlag); err != nil {
			return err
		}

		fmt.Printf("Deleted. %d of %d URLs used.\n", a.Links.TotalCount(), a.Links.Limit())
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Print a link's short URL for opening, counting the click locally.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession()
		if err != nil {
			return err
		}

		if err := a.Links.FetchAll(cmd.Context()); err != nil {
			return err
		}

		for _, l := range a.Links.Links() {
			if l.ID == idFlag {
				// Local, optimistic tally only; the service keeps its
				// own authoritative count when the link is resolved.
				a.Links.IncrementClick(l.ID)
				fmt.Println(l.ShortURL)
				return nil
			}
		}
		return fmt.Errorf("no URL with id %q", idFlag)
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func init() {
	createCmd.Flags().StringVar(&urlFlag, "url", "", "the URL to shorten")
	_ = createCmd.MarkFlagRequired("url")

	deleteCmd.Flags().StringVar(&idFlag, "id", "", "id of the URL to delete")
	_ = deleteCmd.MarkFlagRequired("id")

	openCmd.Flags().StringVar(&idFlag, "id", "", "id of the URL to open")
	_ = openCmd.MarkFlagRequired("id")
}
