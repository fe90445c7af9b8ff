// Event commands manage a trip's calendar events.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voyagehq/tripvault/pkg/types"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage trip calendar events",
}

var (
	eventName    string
	eventDate    string
	eventTime    string
	eventAddress string
)

var eventAddCmd = &cobra.Command{
	Use:   "add <trip-id>",
	Short: "Add a calendar event to a trip",
	Long: `Add appends one event to the trip's calendar.

Example:
  tripvault event add 0198... --name "Hotel check-in" --date 2026-05-10 --time 15:00`,
	Args: cobra.ExactArgs(1),
	RunE: runEventAdd,
}

var eventListCmd = &cobra.Command{
	Use:   "list <trip-id>",
	Short: "List a trip's calendar events",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventList,
}

var eventClearCmd = &cobra.Command{
	Use:   "clear <trip-id>",
	Short: "Remove all of a trip's calendar events",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventClear,
}

func init() {
	eventAddCmd.Flags().StringVar(&eventName, "name", "", "event name (default: Event)")
	eventAddCmd.Flags().StringVar(&eventDate, "date", "", "event date, ISO format (required)")
	eventAddCmd.Flags().StringVar(&eventTime, "time", "", "event time, HH:MM")
	eventAddCmd.Flags().StringVar(&eventAddress, "address", "", "event address")
	_ = eventAddCmd.MarkFlagRequired("date")

	eventCmd.AddCommand(eventAddCmd)
	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventClearCmd)
}

func runEventAdd(cmd *cobra.Command, args []string) error {
	tripID := args[0]

	// The store replaces the whole event set, so append to what is there.
	events, err := tripStore.TripEvents(tripID)
	if err != nil {
		return fmt.Errorf("trip events: %w", err)
	}
	events = append(events, types.Event{
		Name:    eventName,
		Date:    eventDate,
		Time:    eventTime,
		Address: eventAddress,
	})
	if err := tripStore.SaveCalendarEvents(tripID, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	fmt.Printf("Added event to trip %s\n", tripID)
	return nil
}

func runEventList(cmd *cobra.Command, args []string) error {
	tripID := args[0]

	events, err := tripStore.TripEvents(tripID)
	if err != nil {
		return fmt.Errorf("trip events: %w", err)
	}

	if flagJSON {
		return printJSON(events)
	}
	if len(events) == 0 {
		fmt.Println("No events.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tNAME\tADDRESS")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Date, e.Time, e.Name, e.Address)
	}
	w.Flush()
	fmt.Printf("\n%d event(s)\n", len(events))
	return nil
}

func runEventClear(cmd *cobra.Command, args []string) error {
	tripID := args[0]
	if err := tripStore.SaveCalendarEvents(tripID, nil); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	fmt.Printf("Cleared events for trip %s\n", tripID)
	return nil
}
