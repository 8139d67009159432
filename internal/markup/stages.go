package markup

import (
	"regexp"
	"strings"
)

const anchorTemplate = `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`

// Class names carried by list-item markers until WrapBlocks groups them.
const (
	NumberedItemClass = "numbered-item"
	BulletItemClass   = "bullet-item"
)

var (
	labeledLinkPattern = regexp.MustCompile(`(?i)\[Link:\s*([^\]]+)\]\(([^)]+)\)`)
	linkPattern        = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

	h4Pattern = regexp.MustCompile(`(?m)^#### (.+)$`)
	h3Pattern = regexp.MustCompile(`(?m)^### (.+)$`)
	h2Pattern = regexp.MustCompile(`(?m)^## (.+)$`)

	strongPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	emphasisPattern = regexp.MustCompile(`\*(.+?)\*`)

	numberedLinePattern = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)
	bulletLinePattern   = regexp.MustCompile(`(?m)^[\*\-]\s+(.+)$`)

	emptyOrderedPattern   = regexp.MustCompile(`<ol>\s*</ol>`)
	emptyUnorderedPattern = regexp.MustCompile(`<ul>\s*</ul>`)
	emptyParagraphPattern = regexp.MustCompile(`<p>\s*</p>`)

	lineBreakPattern = regexp.MustCompile(`([^>])\n([^<])`)

	numberedMarker = `<li class="` + NumberedItemClass + `">`
	bulletMarker   = `<li class="` + BulletItemClass + `">`
)

// ReplaceLinks turns [Link: label](url) and then [label](url) into anchors that
// open in a new browsing context with rel="noopener noreferrer".
// The "Link:" prefix is matched case-insensitively.
func ReplaceLinks(text string) string {
	text = labeledLinkPattern.ReplaceAllString(text, anchorTemplate)
	return linkPattern.ReplaceAllString(text, anchorTemplate)
}

// ReplaceHeadings converts "#### ", "### " and "## " lines into h4, h3 and h2,
// longest prefix first. A single "#" is left alone.
func ReplaceHeadings(text string) string {
	text = h4Pattern.ReplaceAllString(text, "<h4>$1</h4>")
	text = h3Pattern.ReplaceAllString(text, "<h3>$1</h3>")
	return h2Pattern.ReplaceAllString(text, "<h2>$1</h2>")
}

// ReplaceEmphasis converts **x** to strong and then *x* to em, both non-greedy.
func ReplaceEmphasis(text string) string {
	text = strongPattern.ReplaceAllString(text, "<strong>$1</strong>")
	return emphasisPattern.ReplaceAllString(text, "<em>$1</em>")
}

// MarkListItems turns "1. x" lines into numbered markers and "- x" or "* x" lines
// into bullet markers. Markers stay flat; WrapBlocks adds the containers.
func MarkListItems(text string) string {
	text = numberedLinePattern.ReplaceAllString(text, numberedMarker+"$1</li>")
	return bulletLinePattern.ReplaceAllString(text, bulletMarker+"$1</li>")
}

// WrapBlocks splits on blank lines and wraps each trimmed, non-empty block.
// Blocks already opening with a heading or div pass through; blocks holding
// numbered markers become <ol>, bullet markers <ul>; blocks that already contain
// <p> or a heading pass through; anything else becomes a paragraph.
func WrapBlocks(text string) string {
	blocks := strings.Split(text, "\n\n")
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, wrapBlock(block))
	}
	return strings.Join(out, "\n")
}

func wrapBlock(block string) string {
	switch {
	case strings.HasPrefix(block, "<h"), strings.HasPrefix(block, "<div"):
		return block
	case strings.Contains(block, numberedMarker):
		return "<ol>" + block + "</ol>"
	case strings.Contains(block, bulletMarker):
		return "<ul>" + block + "</ul>"
	case strings.Contains(block, "<p>"), strings.Contains(block, "<h"):
		return block
	default:
		return "<p>" + block + "</p>"
	}
}

// RemoveEmptyContainers drops <ol>, <ul> and <p> elements that hold only whitespace.
func RemoveEmptyContainers(text string) string {
	text = emptyOrderedPattern.ReplaceAllString(text, "")
	text = emptyUnorderedPattern.ReplaceAllString(text, "")
	return emptyParagraphPattern.ReplaceAllString(text, "")
}

// InsertLineBreaks replaces a newline with <br> when the character before it does
// not close a tag and the character after it does not open one. Matches do not
// overlap, so in "a\nb\nc" the second newline shares "b" with the first match and
// is kept.
func InsertLineBreaks(text string) string {
	return lineBreakPattern.ReplaceAllString(text, "$1<br>$2")
}
