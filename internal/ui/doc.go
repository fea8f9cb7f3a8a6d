// Package ui contains the Bubble Tea terminal interface. It drives a
// pipeline controller from key presses and renders job state, progress and
// errors received through a Bridge listener. All UI strings are localized via
// Localization.
package ui
