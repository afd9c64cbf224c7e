package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jfmyers9/lastfm-banner/internal/aggregate"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// albumColumnWidth is the display width of the album column in `top`.
const albumColumnWidth = 48

// topCmd represents the top command
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List the albums the banner would show",
	Long: `Fetch your recent listens and print the albums that would be placed on
the banner, in placement order (left to right, top to bottom).

No artwork is downloaded and no file is written. The ART column shows
whether Last.fm supplied an artwork URL for the album; albums without
one get a placeholder tile.`,
	Args: cobra.NoArgs,
	RunE: runTop,
}

func init() {
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pipeline, err := newPipeline()
	if err != nil {
		return err
	}

	top, err := pipeline.Rank(ctx)
	if err != nil {
		return err
	}

	writeTop(cmd.OutOrStdout(), top)
	return nil
}

// writeTop prints the ranked albums as an aligned table.
func writeTop(w io.Writer, top []aggregate.AlbumStat) {
	fmt.Fprintf(w, "%3s  %s  %5s  %s\n", "#", padToWidth("ALBUM", albumColumnWidth), "PLAYS", "ART")
	for i, album := range top {
		art := "yes"
		if album.ArtworkURL == "" {
			art = "no"
		}
		fmt.Fprintf(w, "%3d  %s  %5d  %s\n", i+1, padToWidth(string(album.Key), albumColumnWidth), album.Count, art)
	}
}

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
// If text is shorter than width, pads with spaces.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text // no padding requested
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			return runewidth.Truncate(ellipsis, width, "")
		}

		truncated := runewidth.Truncate(text, width-ellipsisWidth, "")
		result := truncated + ellipsis

		// Wide runes may leave the result a column short
		if resultWidth := runewidth.StringWidth(result); resultWidth < width {
			return result + strings.Repeat(" ", width-resultWidth)
		}
		return result
	} else if currentWidth < width {
		return text + strings.Repeat(" ", width-currentWidth)
	}

	return text // exactly the right width
}
