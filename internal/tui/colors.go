package tui

// Color constants for the ems TUI theme
const (
	ColorCardBackground = "#1B1530" // modal and toast background
	ColorBorder         = "#3A3F55"

	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383" // completed tasks, empty states
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240"

	ColorAccentMain   = "#7C3AED" // navbar, active borders
	ColorAccentBright = "#A78BFA" // selection, focused field

	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
	ColorInfo    = "#38BDF8" // in-progress status, unread bell
)
