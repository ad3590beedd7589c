package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/wishx/internal/formatter"
	"github.com/desertthunder/wishx/internal/models"
)

var _ list.Item = itemEntry{}

// itemEntry wraps [models.Item] to implement [list.Item].
type itemEntry struct {
	item models.Item
}

func (i itemEntry) FilterValue() string { return i.item.Name }
func (i itemEntry) Title() string {
	return fmt.Sprintf("%s  %s", i.item.Name, formatter.Money(i.item.Price))
}
func (i itemEntry) Description() string {
	desc := formatter.ItemStatus(i.item)
	if i.item.HasTarget() {
		desc = fmt.Sprintf("%s • %s", formatter.ProgressBar(i.item.DisplayProgress(), 10), desc)
	}
	return desc
}

func itemEntries(items []models.Item) []list.Item {
	entries := make([]list.Item, len(items))
	for i, item := range items {
		entries[i] = itemEntry{item: item}
	}
	return entries
}
