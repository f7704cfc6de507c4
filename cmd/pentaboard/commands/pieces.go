package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/dyluth/pentaboard/internal/render"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/spf13/cobra"
)

var (
	piecesLevel string
	piecesGroup string
)

var piecesCmd = &cobra.Command{
	Use:   "pieces",
	Short: "Preview the piece inventory",
	Long: `Draw every piece in the solving service's inventory, or only the pieces a
level needs.

Level references:
  --level expert/7   full group/level key
  --level 7          bare level id (must be unique, or combine with --group)
  --level exp        unique key prefix of at least 2 characters

Examples:
  # All pieces
  pentaboard pieces

  # Pieces of the third starter level
  pentaboard pieces --group starter --level 3`,
	Args: cobra.NoArgs,
	RunE: runPieces,
}

func init() {
	piecesCmd.Flags().StringVarP(&piecesLevel, "level", "l", "", "Only show the pieces of this level")
	piecesCmd.Flags().StringVarP(&piecesGroup, "group", "g", "", "Group used to resolve --level")
	rootCmd.AddCommand(piecesCmd)
}

func runPieces(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	api, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	pieces, err := api.FetchPieces(ctx)
	if err != nil {
		return printer.APIError("Load pieces", err, serviceURL(api))
	}

	w := cmd.OutOrStdout()
	if piecesLevel == "" && piecesGroup == "" {
		render.Pieces(w, pieces)
		return nil
	}

	catalog, err := fetchCatalog(ctx, cfg, api)
	if err != nil {
		return printer.APIError("Load levels", err, serviceURL(api))
	}
	sel, err := selectLevel(catalog, piecesGroup, piecesLevel)
	if err != nil {
		return err
	}
	level, err := puzzle.ResolveLevel(catalog, sel)
	if err != nil {
		return printer.Error("invalid level selection", err.Error(), []string{"List available levels:\n  pentaboard levels"})
	}

	fmt.Fprintln(w, render.LevelHeader(catalog, level, nil, ""))
	fmt.Fprintln(w)
	render.Pieces(w, piecesFor(pieces, level.PieceIDs))
	return nil
}

// piecesFor returns the inventory entries for ids, in ids order. Unknown ids
// are skipped.
func piecesFor(inventory []puzzle.Piece, ids []int) []puzzle.Piece {
	byID := make(map[int]puzzle.Piece, len(inventory))
	for _, p := range inventory {
		byID[p.ID] = p
	}

	out := make([]puzzle.Piece, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
