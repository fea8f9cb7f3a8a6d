package ui

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconMusic  = "🎵"
	IconFolder = "📁"
	IconOK     = "✅"
	IconError  = "❌"
	IconStop   = "⏹"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%3d%%"
)

// Layout sizing
const (
	DefaultWidth     = 80
	MinProgressWidth = 20
	MaxProgressWidth = 60
	InputCharLimit   = 512
	ViewPadding      = 2
)

// Key bindings
const (
	KeySubmit     = "enter"
	KeyCancelJob  = "esc"
	KeyQuit       = "ctrl+c"
	KeyNextRate   = "tab"
	KeyPrevRate   = "shift+tab"
	KeyRevealFile = "ctrl+o"
)
