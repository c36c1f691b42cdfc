package usecase

import (
	"strconv"
	"strings"
)

// Callback payload kinds. Payloads are "kind:arg:arg..." built from short ids.
const (
	actCrop          = "dc"
	actCategory      = "dk"
	actType          = "dt"
	actProduct       = "dp"
	actMode          = "cm"
	actCalcCrop      = "cc"
	actCalcProduct   = "cp"
	actCardCalc      = "pc"
	actCardCrop      = "px"
	actCustomRate    = "cr"
	actAnotherAmount = "ca"
	actMenu          = "mn"
)

func callback(kind string, args ...string) string {
	if len(args) == 0 {
		return kind
	}
	return kind + ":" + strings.Join(args, ":")
}

func parseCallback(data string) (string, []string) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	return parts[0], parts[1:]
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
