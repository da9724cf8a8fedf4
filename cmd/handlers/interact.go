package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsintel/internal/core"
)

// NewInteractCmd creates the interact command group
func NewInteractCmd() *cobra.Command {
	interactCmd := &cobra.Command{
		Use:   "interact",
		Short: "Record user interactions and profile preferences",
	}

	interactCmd.AddCommand(newRecordCmd())
	interactCmd.AddCommand(newProfileCmd())

	return interactCmd
}

func newRecordCmd() *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record [user] [fingerprint]",
		Short: "Append one interaction to a user's history",
		Long: `Record appends a view, like, or bookmark to the user's interaction log.
The log feeds collaborative scoring, so recorded interactions shift both
this user's feed and the feeds of similar readers.

Example:
  newsintel interact record alice 3f1a9c... --action like`,
		Args: cobra.ExactArgs(2),
		Run:  recordRunFunc,
	}

	recordCmd.Flags().String("action", "view", "Interaction kind: view, like, bookmark")

	return recordCmd
}

func recordRunFunc(cmd *cobra.Command, args []string) {
	userID, fingerprint := args[0], args[1]
	action, _ := cmd.Flags().GetString("action")

	a, err := newApp(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	err = a.service.RecordInteraction(context.Background(), userID, fingerprint, core.InteractionAction(action))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Recorded %s by %s on %s\n", action, userID, fingerprint[:12])
}

func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile [user]",
		Short: "Save a user's stated preferences",
		Long: `Profile stores the categories, countries, and language a user prefers.
These preferences drive the content side of the hybrid feed ranking.

Example:
  newsintel interact profile alice --categories sports,technology --countries us,gb --language en`,
		Args: cobra.ExactArgs(1),
		Run:  profileRunFunc,
	}

	profileCmd.Flags().StringSlice("categories", nil, "Preferred categories")
	profileCmd.Flags().StringSlice("countries", nil, "Preferred source countries")
	profileCmd.Flags().String("language", "", "Preferred language code")

	return profileCmd
}

func profileRunFunc(cmd *cobra.Command, args []string) {
	userID := args[0]
	categories, _ := cmd.Flags().GetStringSlice("categories")
	countries, _ := cmd.Flags().GetStringSlice("countries")
	language, _ := cmd.Flags().GetString("language")

	a, err := newApp(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	profile := core.UserProfile{
		UserID:     userID,
		Categories: categories,
		Countries:  countries,
		Language:   language,
	}
	if err := a.service.SaveProfile(context.Background(), profile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Saved profile for %s\n", userID)
}
