// Package grading 提供对用户提交文本的纯函数评分与校验，无 I/O，可并发调用。
package grading

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var sentenceSplitter = regexp.MustCompile(`[.!?]+`)

// words 按空白切分
func words(text string) []string {
	return strings.Fields(text)
}

func lowerWords(text string) []string {
	ws := words(text)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return ws
}

// sentences 按 .!? 切分并丢弃空句
func sentences(text string) []string {
	parts := sentenceSplitter.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// uniquenessRatio 不同小写词数 / 总词数，空文本为 0
func uniquenessRatio(ws []string) float64 {
	if len(ws) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(ws))
}

func wordSet(ws []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		set[w] = struct{}{}
	}
	return set
}

// similarityPercent 两段文本小写词集合的 Jaccard 相似度（0-100，四舍五入）
func similarityPercent(a, b string) int {
	setA := wordSet(lowerWords(a))
	setB := wordSet(lowerWords(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return int(math.Round(float64(intersection) / float64(union) * 100))
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// wholeWordPattern 大小写不敏感的整词匹配
func wholeWordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

func containsAnyWord(text string, candidates []string) bool {
	for _, c := range candidates {
		if wholeWordPattern(c).MatchString(text) {
			return true
		}
	}
	return false
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}

// contextSnippet 截取匹配位置前后约 30 个字符，边界对齐到 rune
func contextSnippet(text string, start, end int) string {
	const radius = 30

	from := start - radius
	if from < 0 {
		from = 0
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}

	to := end + radius
	if to > len(text) {
		to = len(text)
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	return "..." + strings.TrimSpace(text[from:to]) + "..."
}
