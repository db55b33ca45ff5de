package theme

import "github.com/HaiFongPan/r2drive/internal/model"

// ANSI compatible palette
const (
	ColorWhite        = "#FFFFFF" // primary text
	ColorBrightBlack  = "#808080" // secondary text
	ColorBrightBlue   = "#5C7CFA" // primary accent
	ColorBrightCyan   = "#66D9E8" // secondary accent
	ColorBrightGreen  = "#51CF66" // success, links
	ColorBrightYellow = "#FFD43B" // warning, pending
	ColorBrightRed    = "#FF6B6B" // error

	ColorFolder      = "#FCC419"
	ColorFileImage   = "#74C0FC"
	ColorFileDoc     = "#51CF66"
	ColorFileArchive = "#FFA94D"
	ColorFileVideo   = "#FF8787"
	ColorFileAudio   = "#DA77F2"
	ColorFileText    = "#A5D8FF"
)

// Message levels understood by GetMessageColor and GetMessageIcon
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarn    = "warn"
	LevelError   = "error"
)

// GetFileColor returns the color for a file type
func GetFileColor(t model.FileType) string {
	switch t {
	case model.FileTypeImage:
		return ColorFileImage
	case model.FileTypeDocument:
		return ColorFileDoc
	case model.FileTypeArchive:
		return ColorFileArchive
	case model.FileTypeVideo:
		return ColorFileVideo
	case model.FileTypeAudio:
		return ColorFileAudio
	case model.FileTypeText:
		return ColorFileText
	default:
		return ColorWhite
	}
}

// GetFileIcon returns the emoji shown next to a file type
func GetFileIcon(t model.FileType) string {
	switch t {
	case model.FileTypeImage:
		return "🖼️"
	case model.FileTypeDocument:
		return "📄"
	case model.FileTypeArchive:
		return "📦"
	case model.FileTypeVideo:
		return "🎬"
	case model.FileTypeAudio:
		return "🎵"
	case model.FileTypeText:
		return "📝"
	default:
		return "📃"
	}
}

// GetMessageColor returns the color for a message level
func GetMessageColor(level string) string {
	switch level {
	case LevelError:
		return ColorBrightRed
	case LevelSuccess:
		return ColorBrightGreen
	case LevelWarn:
		return ColorBrightYellow
	default:
		return ColorBrightCyan
	}
}

// GetMessageIcon returns the icon for a message level
func GetMessageIcon(level string) string {
	switch level {
	case LevelError:
		return "❌"
	case LevelSuccess:
		return "✅"
	case LevelWarn:
		return "⚠️"
	default:
		return "ℹ️"
	}
}
