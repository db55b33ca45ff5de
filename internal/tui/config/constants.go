package config

// Layout constants
const (
	// LeftPanelWidthRatio is the share of the width used by the listing
	LeftPanelWidthRatio = 0.6

	// Table dimensions
	DefaultColumnNameWidth     = 40
	DefaultColumnSizeWidth     = 10
	DefaultColumnTypeWidth     = 10
	DefaultColumnModifiedWidth = 16
	DefaultTableHeight         = 20

	// Reserved lines around the table rows
	HeaderLines      = 3
	TableHeaderLines = 2
	FooterLines      = 4

	FileNameTruncateLength = 37

	// Dialog dimensions
	DialogDefaultWidth = 50
	DialogLargeWidth   = 70

	// DoubleTapThreshold is the longest gap between two clicks of a double click, in ms
	DoubleTapThreshold = 300
)
