package utils

import (
	"fmt"
	"math"
	"os"
	"time"
)

// MessageType selects the color of a CLI message.
type MessageType int

// Message types printed by the CLI.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// ANSI color sequences of the message types.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

var messageColors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
	StatusMessage:  StatusColor,
}

// NoColor disables the decoration of messages. It defaults to true when
// the NO_COLOR environment variable is set.
var NoColor = os.Getenv("NO_COLOR") != ""

// DecorateText wraps s in the color of msgType. Unknown types and NoColor
// leave s unchanged.
func DecorateText(s string, msgType MessageType) string {
	col, ok := messageColors[msgType]
	if NoColor || !ok {
		return s
	}
	return col + s + DefaultColor
}

// FormatTime renders d with days, hours and minutes as needed, e.g.
// "1h 2m 3.00s".
func FormatTime(d time.Duration) string {
	secs := math.Mod(d.Seconds(), 60)
	days := int64(d / (24 * time.Hour))
	hours := int64(d % (24 * time.Hour) / time.Hour)
	mins := int64(d % time.Hour / time.Minute)

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %.2fs", mins, secs)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm %.2fs", hours, mins, secs)
	}
	return fmt.Sprintf("%dd %dh %dm %.2fs", days, hours, mins, secs)
}
