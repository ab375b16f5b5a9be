package testutil

import (
	"fmt"
	"strings"
)

// Fragments mixes one-, two-, three- and four-byte UTF-8 scalars so that
// UTF-8, UTF-16 and UTF-32 columns all diverge.
var Fragments = []string{
	"func main() {",
	"\treturn nil",
	"Привет, мир",
	"你好世界",
	"emoji 😀 and 🎉",
	"naïve café",
	"𐐀 deseret",
	"",
}

// GenerateDocument returns numLines lines built from Fragments. Every
// seventh line ends with "\r\n" instead of "\n"; the last line has no
// terminator.
func GenerateDocument(numLines int) string {
	var sb strings.Builder

	for i := range numLines {
		frag := Fragments[i%len(Fragments)]
		fmt.Fprintf(&sb, "%04d %s", i, frag)

		if i == numLines-1 {
			break
		}
		if i%7 == 6 {
			sb.WriteString("\r\n")
		} else {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// LineStarts computes line starts by brute force, for checking indexes.
func LineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
