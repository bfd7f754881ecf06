package helpers

import (
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"html"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const letterAvatarSVG = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` +
	`<svg xmlns="http://www.w3.org/2000/svg" height="96" width="96" version="1.1" viewBox="0 0 96 96">` +
	`<g><rect width="96" height="96" fill="%s" />` +
	`<text font-size="64px" font-family="sans-serif" text-anchor="middle" fill="#ffffff">` +
	`<tspan x="48" y="72" stroke-width=".26458px" fill="#ffffff">%s</tspan></text></g></svg>`

var upper = cases.Upper(language.Und)

// LetterAvatar renders a 96x96 SVG with the first letter of name and returns it as a data URL.
// The background colour is derived from name, so the same name always yields the same URL.
func LetterAvatar(name string) string {
	letter := "?"
	if r, size := utf8.DecodeRuneInString(strings.TrimSpace(name)); r != utf8.RuneError || size > 1 {
		letter = upper.String(string(r))
	}
	svg := fmt.Sprintf(letterAvatarSVG, letterColor(name), html.EscapeString(letter))
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// letterColor picks a dark HSL colour so white text stays readable
func letterColor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	sum := h.Sum32()
	hue := sum % 360
	sat := 45 + (sum>>9)%30
	light := 30 + (sum>>17)%15
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, sat, light)
}
