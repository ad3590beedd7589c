// package formatter renders wishlists for the terminal and exports them to files (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/shared"
)

const progressWidth = 20

// Money formats an amount with two decimals.
func Money(a models.Amount) string {
	return a.Fixed()
}

// ProgressBar renders p in [0,1] as a fixed-width bar with a percentage.
func ProgressBar(p float64, width int) string {
	if width <= 0 {
		width = progressWidth
	}
	p = max(0, min(1, p))
	filled := int(p*float64(width) + 0.5)
	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("█", filled), strings.Repeat("░", width-filled), p*100)
}

// DashboardLine renders one wishlist summary, e.g. "Birthday (30th) · 3 items".
func DashboardLine(s models.WishlistSummary) string {
	line := s.Name
	if s.Occasion != "" {
		line += " (" + s.Occasion + ")"
	}
	return fmt.Sprintf("%s · %s", line, shared.Pluralize(s.ItemCount, "item"))
}

// WriteDashboard writes the owner's wishlists, one per line.
func WriteDashboard(w io.Writer, lists []models.WishlistSummary) error {
	if len(lists) == 0 {
		_, err := fmt.Fprintln(w, "No wishlists yet.")
		return err
	}
	for _, s := range lists {
		if _, err := fmt.Fprintf(w, "%s\n  id: %s  slug: %s\n", DashboardLine(s), s.ID, s.Slug); err != nil {
			return fmt.Errorf("failed to write dashboard: %w", err)
		}
	}
	return nil
}

// ItemStatus describes an item's reservation and funding from the viewer's side.
func ItemStatus(item models.Item) string {
	var parts []string
	switch {
	case item.ReservedByMe:
		parts = append(parts, "reserved by you")
	case item.Reserved:
		parts = append(parts, "reserved")
	}
	if item.HasTarget() {
		parts = append(parts, fmt.Sprintf("%s of %s", Money(item.TotalContributed), Money(item.Target())))
		if item.ContributedByMe > 0 {
			parts = append(parts, fmt.Sprintf("you gave %s", Money(item.ContributedByMe)))
		}
	}
	if len(parts) == 0 {
		return "available"
	}
	return strings.Join(parts, ", ")
}

// WriteWishlist writes a wishlist with one block per item.
func WriteWishlist(w io.Writer, wl *models.Wishlist) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", wl.Name)
	if wl.Occasion != "" {
		fmt.Fprintf(&buf, "Occasion: %s\n", wl.Occasion)
	}
	fmt.Fprintf(&buf, "Share: /w/%s\n", wl.Slug)
	fmt.Fprintf(&buf, "%s\n\n", shared.Pluralize(len(wl.Items), "item"))

	for i, item := range wl.Items {
		fmt.Fprintf(&buf, "%d. %s  %s\n", i+1, item.Name, Money(item.Price))
		fmt.Fprintf(&buf, "   id: %s  %s\n", item.ID, ItemStatus(item))
		if item.HasTarget() {
			fmt.Fprintf(&buf, "   %s\n", ProgressBar(item.DisplayProgress(), progressWidth))
		}
		if item.URL != "" {
			fmt.Fprintf(&buf, "   %s\n", item.URL)
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write wishlist: %w", err)
	}
	return nil
}

// ExportToCSV converts a wishlist to CSV with columns: ID, Name, URL, Price, Target, Contributed, Reserved
func ExportToCSV(wl *models.Wishlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "URL", "Price", "Target", "Contributed", "Reserved"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range wl.Items {
		target := ""
		if item.HasTarget() {
			target = Money(item.Target())
		}
		record := []string{
			item.ID,
			item.Name,
			item.URL,
			Money(item.Price),
			target,
			Money(item.TotalContributed),
			strconv.FormatBool(item.Reserved),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a wishlist to Markdown. images maps item IDs to local image filenames.
func ExportToMarkdown(wl *models.Wishlist, images map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", wl.Name))
	if wl.Occasion != "" {
		buf.WriteString(fmt.Sprintf("**Occasion**: %s\n\n", wl.Occasion))
	}
	buf.WriteString(fmt.Sprintf("**Items**: %d\n\n", len(wl.Items)))

	buf.WriteString("## Items\n\n")
	for i, item := range wl.Items {
		name := item.Name
		if item.URL != "" {
			name = fmt.Sprintf("[%s](%s)", item.Name, item.URL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s)", i+1, name, Money(item.Price)))
		if item.HasTarget() {
			buf.WriteString(fmt.Sprintf(" [%s / %s]", Money(item.TotalContributed), Money(item.Target())))
		}
		if item.Reserved {
			buf.WriteString(" *reserved*")
		}
		buf.WriteString("\n")
		if img, ok := images[item.ID]; ok {
			buf.WriteString(fmt.Sprintf("\n   ![%s](%s)\n\n", item.Name, img))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a wishlist to plain text
func ExportToText(wl *models.Wishlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Wishlist: %s\n", wl.Name))
	if wl.Occasion != "" {
		buf.WriteString(fmt.Sprintf("Occasion: %s\n", wl.Occasion))
	}
	buf.WriteString(fmt.Sprintf("Items: %d\n\n", len(wl.Items)))

	for i, item := range wl.Items {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, item.Name, Money(item.Price)))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of wishlist metadata (without items)
func ToMetadataJSON(wl *models.Wishlist) ([]byte, error) {
	meta := models.WishlistSummary{ID: wl.ID, Name: wl.Name, Occasion: wl.Occasion, Slug: wl.Slug, ItemCount: len(wl.Items)}
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	MetadataFile string
}

// WriteCSVExport exports a wishlist to CSV with an accompanying metadata JSON file.
//
// Defaults to the wishlist ID as the base filename & creates {base}_items.csv and {base}_metadata.json
func WriteCSVExport(wl *models.Wishlist, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = wl.ID
	}

	csvData, err := ExportToCSV(wl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	itemsFile := baseFilepath + "_items.csv"
	if err := os.WriteFile(itemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(wl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		ItemsFile:    itemsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Images    []string
}

// WriteMarkdownExport exports a wishlist to Markdown in a dedicated directory.
//
// Directory name defaults to the wishlist ID. With withImages set, item images are
// downloaded next to the README; failed downloads are skipped.
// Creates a directory structure: {dir}/README.md and optionally {dir}/{itemID}.jpg
func WriteMarkdownExport(wl *models.Wishlist, outputDir string, withImages bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = wl.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	images := map[string]string{}
	if withImages {
		for _, item := range wl.Items {
			if item.ImageURL == nil || *item.ImageURL == "" {
				continue
			}
			data, err := DownloadImage(*item.ImageURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to download image for %s: %v\n", item.Name, err)
				continue
			}
			name := item.ID + ".jpg"
			path := filepath.Join(outputDir, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save image for %s: %v\n", item.Name, err)
				continue
			}
			images[item.ID] = name
			result.Images = append(result.Images, path)
			result.Files = append(result.Files, path)
		}
	}

	mdData, err := ExportToMarkdown(wl, images)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a wishlist to plain text.
//
// Defaults to {wishlist.ID}_items.txt as the filename.
func WriteTextExport(wl *models.Wishlist, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_items.txt", wl.ID)
	}

	textData, err := ExportToText(wl)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the full wishlist as indented JSON.
func WriteJSONExport(wl *models.Wishlist, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.json", wl.ID)
	}

	data, err := shared.MarshalJSON(wl, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}
