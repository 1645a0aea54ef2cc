package service

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatSum группирует разряды пробелами: 1250000 -> "1 250 000".
func FormatSum(amount int64) string {
	return strings.ReplaceAll(humanize.Comma(amount), ",", " ")
}
