package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the most recently used relay and name",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok, err := appCtx.Profiles.LoadProfile()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("No profile stored yet. Run `matrixchat join` first.")
				return nil
			}
			fmt.Printf("Relay:     %s\nName:      %s\nLast used: %s\n",
				p.Relay, p.Username, time.Unix(0, p.LastUsed).Format(time.RFC3339))
			return nil
		},
	}
}
