// Trip commands manage saved trips.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/voyagehq/tripvault/pkg/types"
)

var tripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Manage saved trips",
}

var (
	tripID         string
	tripTitle      string
	tripDate       string
	tripPassengers int
)

var tripAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a trip",
	Long: `Add saves a trip. Saving an existing ID replaces the trip's fields
while keeping its calendar events and attachments.

Example:
  tripvault trip add --title "Rome in May" --date 2026-05-10
  tripvault trip add --id 0198... --title "Rome in May (updated)" --date 2026-05-11`,
	RunE: runTripAdd,
}

var tripListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved trips",
	Long: `List displays all saved trips, most recent travel date first.

Example:
  tripvault trip list
  tripvault trip list --json`,
	RunE: runTripList,
}

var tripUpdateCmd = &cobra.Command{
	Use:   "update <trip-id>",
	Short: "Update fields of a saved trip",
	Long: `Update changes only the fields whose flags are set; everything else
keeps its stored value. Updating an unknown ID is a no-op.

Example:
  tripvault trip update 0198... --date 2026-05-12
  tripvault trip update 0198... --title "Rome, revised" --passengers 3`,
	Args: cobra.ExactArgs(1),
	RunE: runTripUpdate,
}

var tripShowCmd = &cobra.Command{
	Use:   "show <trip-id>",
	Short: "Show one trip with its events and attachments",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripShow,
}

var tripRemoveCmd = &cobra.Command{
	Use:   "remove <trip-id>",
	Short: "Remove a trip and its events and attachments",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripRemove,
}

func init() {
	tripAddCmd.Flags().StringVar(&tripID, "id", "", "trip ID (default: new UUID)")
	tripAddCmd.Flags().StringVar(&tripTitle, "title", "", "trip title (required)")
	tripAddCmd.Flags().StringVar(&tripDate, "date", "", "travel date, ISO format (required)")
	tripAddCmd.Flags().IntVar(&tripPassengers, "passengers", 1, "passenger count")
	_ = tripAddCmd.MarkFlagRequired("title")
	_ = tripAddCmd.MarkFlagRequired("date")

	tripUpdateCmd.Flags().StringVar(&tripTitle, "title", "", "new trip title")
	tripUpdateCmd.Flags().StringVar(&tripDate, "date", "", "new travel date")
	tripUpdateCmd.Flags().IntVar(&tripPassengers, "passengers", 0, "new passenger count")

	tripCmd.AddCommand(tripAddCmd)
	tripCmd.AddCommand(tripUpdateCmd)
	tripCmd.AddCommand(tripListCmd)
	tripCmd.AddCommand(tripShowCmd)
	tripCmd.AddCommand(tripRemoveCmd)
}

func runTripAdd(cmd *cobra.Command, args []string) error {
	id := tripID
	if id == "" {
		id = newTripID()
	}

	trip := types.Trip{
		ID:         id,
		Title:      tripTitle,
		Date:       tripDate,
		Passengers: tripPassengers,
		SavedAt:    time.Now().UnixMilli(),
	}
	if err := tripStore.AddTrip(trip); err != nil {
		return fmt.Errorf("save trip: %w", err)
	}

	if flagJSON {
		return printJSON(trip)
	}
	fmt.Printf("Saved trip: %s\n", id)
	return nil
}

func runTripUpdate(cmd *cobra.Command, args []string) error {
	id := args[0]

	var patch types.TripPatch
	if cmd.Flags().Changed("title") {
		patch.Title = &tripTitle
	}
	if cmd.Flags().Changed("date") {
		patch.Date = &tripDate
	}
	if cmd.Flags().Changed("passengers") {
		patch.Passengers = &tripPassengers
	}
	if patch.IsEmpty() {
		fmt.Println("Nothing to update.")
		return nil
	}

	if err := tripStore.UpdateTrip(id, patch); err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	fmt.Printf("Updated trip: %s\n", id)
	return nil
}

func runTripList(cmd *cobra.Command, args []string) error {
	trips, err := tripStore.SavedTrips()
	if err != nil {
		return fmt.Errorf("list trips: %w", err)
	}

	if flagJSON {
		return printJSON(trips)
	}
	printTripTable(trips)
	return nil
}

func runTripShow(cmd *cobra.Command, args []string) error {
	id := args[0]

	trips, err := tripStore.SavedTrips()
	if err != nil {
		return fmt.Errorf("list trips: %w", err)
	}
	var trip *types.Trip
	for i := range trips {
		if trips[i].ID == id {
			trip = &trips[i]
			break
		}
	}
	if trip == nil {
		return fmt.Errorf("trip %s: %w", id, types.ErrNotFound)
	}

	events, err := tripStore.TripEvents(id)
	if err != nil {
		return fmt.Errorf("trip events: %w", err)
	}
	attachments, err := tripStore.TripAttachments(id, "")
	if err != nil {
		return fmt.Errorf("trip attachments: %w", err)
	}

	if flagJSON {
		return printJSON(struct {
			Trip        types.Trip         `json:"trip"`
			Events      []types.Event      `json:"events"`
			Attachments []types.Attachment `json:"attachments"`
		}{*trip, events, attachments})
	}

	fmt.Printf("Trip:       %s\n", trip.ID)
	fmt.Printf("Title:      %s\n", trip.Title)
	fmt.Printf("Date:       %s\n", trip.Date)
	fmt.Printf("Passengers: %d\n", trip.Passengers)
	for _, leg := range trip.FlightNotes {
		fmt.Printf("Flight:     [%s] %s %s-%s %s\n", leg.Leg, leg.FlightNumber, leg.Origin, leg.Destination, leg.Date)
	}
	if len(events) > 0 {
		fmt.Printf("\nEvents (%d):\n", len(events))
		for _, e := range events {
			fmt.Printf("  %s %s  %s\n", e.Date, e.Time, e.Name)
		}
	}
	if len(attachments) > 0 {
		fmt.Printf("\nAttachments (%d):\n", len(attachments))
		for _, a := range attachments {
			fmt.Printf("  %s (%s, %d bytes)\n", a.Name, a.Type, a.Size)
		}
	}
	return nil
}

func runTripRemove(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := tripStore.RemoveTrip(id); err != nil {
		return fmt.Errorf("remove trip: %w", err)
	}
	fmt.Printf("Removed trip: %s\n", id)
	return nil
}

// printTripTable prints trips in a human-readable table format.
func printTripTable(trips []types.Trip) {
	if len(trips) == 0 {
		fmt.Println("No saved trips.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tPASSENGERS\tTITLE")
	for _, t := range trips {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.ID, t.Date, t.Passengers, t.Title)
	}
	w.Flush()
	fmt.Printf("\n%d trip(s)\n", len(trips))
}

// printJSON marshals v with indentation and writes it to stdout.
func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// newTripID returns a time-ordered UUID, falling back to a random one when
// the clock source fails.
func newTripID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
