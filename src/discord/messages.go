package discord

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxDiscordMessageLen = 2000

	boxInnerWidth = 56
	boxPadding    = 1

	ansiDim   = "\u001b[2m"
	ansiReset = "\u001b[0m"
)

// renderBox draws title and body as a framed ansi code block.
func renderBox(title, body string) string {
	innerWidth := boxInnerWidth + boxPadding*2
	border := strings.Repeat("─", innerWidth+2)

	lines := []string{"╭" + border + "╮"}
	if t := strings.TrimSpace(title); t != "" {
		for _, l := range wrapLine(t, boxInnerWidth) {
			lines = append(lines, formatBoxLine(l))
		}
		lines = append(lines, "├"+border+"┤")
	}
	for _, raw := range strings.Split(body, "\n") {
		for _, l := range wrapLine(strings.TrimRight(raw, " "), boxInnerWidth) {
			lines = append(lines, formatBoxLine(l))
		}
	}
	lines = append(lines, "╰"+border+"╯")

	return fmt.Sprintf("```ansi\n%s%s%s\n```", ansiDim, strings.Join(lines, "\n"), ansiReset)
}

func formatBoxLine(content string) string {
	pad := strings.Repeat(" ", boxPadding)
	return fmt.Sprintf("│ %s%s%s │", pad, padRight(content, boxInnerWidth), pad)
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var out []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if runeLen(current.String())+1+runeLen(word) > width {
			out = append(out, current.String())
			current.Reset()
			current.WriteString(word)
		} else {
			current.WriteByte(' ')
			current.WriteString(word)
		}
	}
	out = append(out, current.String())

	var lines []string
	for _, entry := range out {
		lines = append(lines, splitLongWord(entry, width)...)
	}
	return lines
}

func splitLongWord(text string, width int) []string {
	runes := []rune(text)
	var result []string
	for len(runes) > width {
		result = append(result, string(runes[:width]))
		runes = runes[width:]
	}
	return append(result, string(runes))
}

func padRight(text string, width int) string {
	n := runeLen(text)
	if n >= width {
		return string([]rune(text)[:width])
	}
	return text + strings.Repeat(" ", width-n)
}

func runeLen(value string) int {
	return utf8.RuneCountInString(value)
}

func truncateForDiscord(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
