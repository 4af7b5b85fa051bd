package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/giygas/medicine-inventory/inventory"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC2626"))
	statLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statValue    = lipgloss.NewStyle().Bold(true)
	currentPage  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#2563EB")).Padding(0, 1)
	otherPage    = lipgloss.NewStyle().Padding(0, 1)
	disabledPage = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Padding(0, 1)
	statBox      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#0891B2")).Padding(1, 2)
	labelStyle   = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("241"))
	priceStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#059669"))
)

var badgeStyles = map[inventory.Badge]lipgloss.Style{
	inventory.BadgeAllopathic:  lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#1E40AF")).Background(lipgloss.Color("#DBEAFE")),
	inventory.BadgeHerbal:      lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#166534")).Background(lipgloss.Color("#DCFCE7")),
	inventory.BadgeAyurvedic:   lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#9A3412")).Background(lipgloss.Color("#FFEDD5")),
	inventory.BadgeHomeopathic: lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#6B21A8")).Background(lipgloss.Color("#F3E8FF")),
	inventory.BadgeNeutral:     lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#1F2937")).Background(lipgloss.Color("#F3F4F6")),
}

func renderBadge(medicineType string) string {
	style, ok := badgeStyles[inventory.TypeBadge(medicineType)]
	if !ok {
		style = badgeStyles[inventory.BadgeNeutral]
	}
	if medicineType == "" {
		medicineType = "N/A"
	}
	return style.Render(medicineType)
}
