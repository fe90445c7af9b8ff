// Attach commands manage trip attachments and their stored payloads.
package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voyagehq/tripvault/pkg/types"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Manage trip attachments",
}

var (
	attachLeg      string
	attachCategory string
	attachRef      string
	attachName     string
)

var attachAddCmd = &cobra.Command{
	Use:   "add <trip-id> <file>",
	Short: "Attach a file to a trip",
	Long: `Add stores the file's bytes and indexes them under the trip.

With --category (and optionally --ref) the attachment is appended to the
trip's set under that key. With --leg it replaces the trip's attachments
under that leg tag.

Example:
  tripvault attach add 0198... receipt.pdf --category expenses --ref hotel
  tripvault attach add 0198... boarding.pdf --leg outbound`,
	Args: cobra.ExactArgs(2),
	RunE: runAttachAdd,
}

var attachListCmd = &cobra.Command{
	Use:   "list <trip-id>",
	Short: "List a trip's attachments",
	Long: `List displays the trip's attachments. Flags narrow the result:
--leg filters by leg tag, --category and --ref filter by index key.

Example:
  tripvault attach list 0198...
  tripvault attach list 0198... --category expenses --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAttachList,
}

var attachExportCmd = &cobra.Command{
	Use:   "export <file-id> <dest>",
	Short: "Write an attachment's payload to a local file",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttachExport,
}

func init() {
	attachAddCmd.Flags().StringVar(&attachLeg, "leg", "", "leg tag (outbound or inbound)")
	attachAddCmd.Flags().StringVar(&attachCategory, "category", "", "attachment category")
	attachAddCmd.Flags().StringVar(&attachRef, "ref", "", "reference key within the category")
	attachAddCmd.Flags().StringVar(&attachName, "name", "", "display name (default: file name)")

	attachListCmd.Flags().StringVar(&attachLeg, "leg", "", "filter by leg tag")
	attachListCmd.Flags().StringVar(&attachCategory, "category", "", "filter by category")
	attachListCmd.Flags().StringVar(&attachRef, "ref", "", "filter by reference key")

	attachCmd.AddCommand(attachAddCmd)
	attachCmd.AddCommand(attachListCmd)
	attachCmd.AddCommand(attachExportCmd)
}

func runAttachAdd(cmd *cobra.Command, args []string) error {
	tripID, filePath := args[0], args[1]
	if attachLeg != "" && attachCategory != "" {
		return fmt.Errorf("--leg and --category are mutually exclusive")
	}
	if attachLeg == "" && attachCategory == "" {
		return fmt.Errorf("one of --leg or --category is required")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	name := attachName
	if name == "" {
		name = filepath.Base(filePath)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(filePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	ref, err := tripStore.Blobs().Put(name, mimeType, data)
	if err != nil {
		return fmt.Errorf("store payload: %w", err)
	}

	att := types.Attachment{
		Name:   ref.Name,
		Type:   ref.Type,
		Size:   ref.Size,
		FileID: ref.ID,
	}

	if attachCategory != "" {
		err = tripStore.SaveRefAttachments(tripID, attachCategory, attachRef, []types.Attachment{att})
	} else {
		existing, lerr := tripStore.TripAttachments(tripID, attachLeg)
		if lerr != nil {
			return fmt.Errorf("list leg attachments: %w", lerr)
		}
		err = tripStore.SaveTripAttachments(tripID, attachLeg, append(existing, att))
	}
	if err != nil {
		return fmt.Errorf("save attachment: %w", err)
	}

	if flagJSON {
		return printJSON(ref)
	}
	fmt.Printf("Attached %s (%s)\n", name, ref.ID)
	return nil
}

func runAttachList(cmd *cobra.Command, args []string) error {
	tripID := args[0]

	var (
		attachments []types.Attachment
		err         error
	)
	if attachCategory != "" || attachRef != "" {
		attachments, err = tripStore.RefAttachments(tripID, attachCategory, attachRef)
	} else {
		attachments, err = tripStore.TripAttachments(tripID, attachLeg)
	}
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}

	if flagJSON {
		return printJSON(attachments)
	}
	printAttachmentTable(attachments)
	return nil
}

func runAttachExport(cmd *cobra.Command, args []string) error {
	fileID, dest := args[0], args[1]

	data, err := tripStore.Blobs().Open(fileID)
	if err != nil {
		return fmt.Errorf("open payload: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	fmt.Printf("Exported %d bytes to %s\n", len(data), dest)
	return nil
}

// printAttachmentTable prints attachments in a human-readable table format.
func printAttachmentTable(attachments []types.Attachment) {
	if len(attachments) == 0 {
		fmt.Println("No attachments.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tSIZE\tLEG\tCATEGORY\tREF\tFILE ID")
	for _, a := range attachments {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", a.Name, a.Type, a.Size, a.Leg, a.Category, a.Ref, a.FileID)
	}
	w.Flush()
	fmt.Printf("\n%d attachment(s)\n", len(attachments))
}
