package helpers

import (
	"fmt"
	"strings"
	"time"
)

// StageNode is one timed stage of a scan. Children are sub-stages whose
// durations are part of the parent's.
type StageNode struct {
	Name     string
	Duration time.Duration
	Children []StageNode
}

// dominantShare marks a stage that took at least this share of the total.
const dominantShare = 50.0

// RenderTree renders a stage tree in ASCII art format. total is used to
// calculate percentages; it falls back to the root duration when zero.
func RenderTree(root StageNode, total time.Duration) string {
	if total <= 0 {
		total = root.Duration
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("%s (%s)\n", root.Name, FormatDuration(root.Duration)))
	for i, child := range root.Children {
		buf.WriteString(renderTreeNode(child, "", i == len(root.Children)-1, total))
	}
	return buf.String()
}

func renderTreeNode(node StageNode, prefix string, isLast bool, total time.Duration) string {
	var buf strings.Builder

	connector := "├─"
	if isLast {
		connector = "└─"
	}

	percentage := 0.0
	if total > 0 {
		percentage = (float64(node.Duration) / float64(total)) * 100
	}

	marker := ""
	if percentage >= dominantShare {
		marker = " ← DOMINANT"
	}

	buf.WriteString(fmt.Sprintf("%s%s %s (%s, %.1f%%)%s\n",
		prefix,
		connector,
		node.Name,
		FormatDuration(node.Duration),
		percentage,
		marker,
	))

	childPrefix := prefix
	if isLast {
		childPrefix += "  "
	} else {
		childPrefix += "│ "
	}

	for i, child := range node.Children {
		buf.WriteString(renderTreeNode(child, childPrefix, i == len(node.Children)-1, total))
	}

	return buf.String()
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	} else if d < time.Millisecond {
		return fmt.Sprintf("%.1fµs", float64(d.Nanoseconds())/1000)
	} else if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
