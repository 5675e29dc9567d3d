package station_service

import (
	"regexp"
	"strconv"
	"strings"
)

var numericPattern = regexp.MustCompile(`[-+]?(?:\d*\.\d+|\d+\.?)(?:[eE][+-]?\d+)?`)

// ParseFirstFloat достает первое число из текстового ответа станции.
// Пустой ответ, nil и "OK" означают 0.
func ParseFirstFloat(response *string) float64 {
	if response == nil {
		return 0
	}
	s := strings.TrimSpace(*response)
	if s == "" || s == "OK" {
		return 0
	}
	match := numericPattern.FindString(s)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// formatValue печатает число без лишних нулей: 12.5, -3, 0.001.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// responsePrefixes - грамматика строк, которые обновляют состояние станции.
var responsePrefixes = []string{"X:", "Y:", "TEMP:", "DONEZOOM:", "PRES:"}

// parseResponse разбирает строку вида "PREFIX:<value>".
// ok=false, если префикс неизвестен или значение не число.
func parseResponse(line string) (prefix string, value float64, ok bool) {
	for _, p := range responsePrefixes {
		if strings.HasPrefix(line, p) {
			v, err := strconv.ParseFloat(strings.TrimSpace(line[len(p):]), 64)
			if err != nil {
				return p, 0, false
			}
			return p, v, true
		}
	}
	return "", 0, false
}
