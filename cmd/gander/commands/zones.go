package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ganderhq/gander/internal/engine/timezone"
)

// NewZonesCmd creates the zones command
func NewZonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List recognized timezone abbreviations",
		Long:  "List the timezone abbreviations the engine recognizes and the IANA zone each resolves to.",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := timezone.NewResolver(nil)
			for _, abbr := range resolver.Abbreviations() {
				zone, ok := resolver.ZoneFor(abbr)
				if !ok {
					continue
				}
				fmt.Printf("%-6s %s\n", abbr, zone)
			}
			return nil
		},
	}
}
