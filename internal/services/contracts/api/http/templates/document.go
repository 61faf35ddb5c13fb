// Package templates holds the HTML views served by the contracts HTTP API.
package templates

import (
	"strconv"
	"strings"
)

// DocumentView is a contract prepared for its printable page.
type DocumentView struct {
	Name          string
	BlueprintName string
	Status        string
	StatusLabel   string
	PageStyle     string
	Fields        []DocumentField
	History       []DocumentEntry
}

// DocumentField is one placed field. Missing marks a required field with no
// answer; Text then holds the placeholder.
type DocumentField struct {
	ID      string
	Type    string
	Label   string
	Text    string
	Style   string
	Missing bool
}

// DocumentEntry is one line of the contract's transition history.
type DocumentEntry struct {
	From string
	To   string
	At   string
	Note string
}

// BoxStyle returns absolute placement for a box at x, y. Zero width or
// height leaves that dimension to the content.
func BoxStyle(x, y, width, height float64) string {
	parts := []string{"left:" + px(x), "top:" + px(y)}
	if width > 0 {
		parts = append(parts, "width:"+px(width))
	}
	if height > 0 {
		parts = append(parts, "height:"+px(height))
	}
	return strings.Join(parts, ";")
}

// PageStyle returns the fixed dimensions of a document page.
func PageStyle(width, height int) string {
	return "width:" + strconv.Itoa(width) + "px;height:" + strconv.Itoa(height) + "px"
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
