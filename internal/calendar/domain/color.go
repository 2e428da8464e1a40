package domain

import (
	"log"
	"strings"
)

// ColorID is the calendar's small palette enum ("1" to "11").
type ColorID string

const (
	ColorLavender  ColorID = "1"
	ColorSage      ColorID = "2"
	ColorGrape     ColorID = "3"
	ColorFlamingo  ColorID = "4"
	ColorBanana    ColorID = "5"
	ColorTangerine ColorID = "6"
	ColorPeacock   ColorID = "7"
	ColorGraphite  ColorID = "8"
	ColorBlueberry ColorID = "9"
	ColorBasil     ColorID = "10"
	ColorTomato    ColorID = "11"

	DefaultColorID = ColorLavender
	DoneColorID    = ColorBasil
)

var hexColors = map[string]ColorID{
	"#3498DB": ColorBlueberry,
	"#E74C3C": ColorTomato,
	"#2ECC71": ColorBasil,
	"#F39C12": ColorTangerine,
	"#9B59B6": ColorGrape,
	"#1ABC9C": ColorPeacock,
	"#34495E": ColorGraphite,
	"#E67E22": ColorTangerine,
	"#95A5A6": ColorGraphite,
	"#FF5733": ColorTangerine,
	"#33C1FF": ColorPeacock,
	"#8E44AD": ColorGrape,
	"#27AE60": ColorSage,
}

// LookupColor maps a goal display color onto the palette.
func LookupColor(hex string) (ColorID, bool) {
	id, ok := hexColors[strings.ToUpper(strings.TrimSpace(hex))]
	return id, ok
}

// ColorForGoal maps a goal display color, falling back to the default entry.
func ColorForGoal(hex string) ColorID {
	if id, ok := LookupColor(hex); ok {
		return id
	}
	if hex != "" {
		log.Printf("[CalendarColor] No palette entry for %s, using default", hex)
	}
	return DefaultColorID
}
