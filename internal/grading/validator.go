package grading

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	minCommentWords      = 5
	maxCommentChars      = 1000
	copiedThreshold      = 80
	tooSimilarThreshold  = 60
	minUniquenessRatio   = 0.5
	minAlphaRatio        = 0.6
	maxDominantWordRatio = 0.3
	hebrewBlockStart     = 0x0590
	hebrewBlockEnd       = 0x05FF
)

const (
	IssueTooShort         = "Comment is too short. Please write at least 5 words."
	IssueTooLong          = "Comment is too long. Please keep it under 1000 characters."
	IssueWrongLanguage    = "Comment must be written in English."
	IssueCopied           = "Comment appears to be copied from the source text."
	IssueTooSimilar       = "Comment is too similar to the source text. Please be more original."
	IssueRepetitive       = "Comment contains too much repetition."
	IssueNotEnoughLetters = "Comment should contain mostly letters."
	IssueDominantWordSpam = "Comment contains too much repetition of the same word."
)

type ValidationDetails struct {
	WordCount         int     `json:"wordCount"`
	CharCount         int     `json:"charCount"`
	UniquenessRatio   float64 `json:"uniquenessRatio"`
	SimilarityPercent int     `json:"similarityPercent"`
	AlphaRatio        float64 `json:"alphaRatio"`
	DominantWord      string  `json:"dominantWord,omitempty"`
	DominantWordRatio float64 `json:"dominantWordRatio"`
}

// ValidationResult Issues 为空当且仅当 Valid 为 true
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Issues  []string          `json:"issues"`
	Details ValidationDetails `json:"details"`
}

// Validate 检查评论的基本格式以及抄袭、刷屏等问题，可同时返回多条问题
func Validate(comment, source string) ValidationResult {
	ws := lowerWords(comment)
	charCount := utf8.RuneCountInString(comment)
	issues := make([]string, 0)

	if len(ws) < minCommentWords {
		issues = append(issues, IssueTooShort)
	}
	if charCount > maxCommentChars {
		issues = append(issues, IssueTooLong)
	}
	if containsHebrew(comment) {
		issues = append(issues, IssueWrongLanguage)
	}

	similarity := similarityPercent(comment, source)
	switch {
	case similarity > copiedThreshold:
		issues = append(issues, IssueCopied)
	case similarity >= tooSimilarThreshold:
		issues = append(issues, IssueTooSimilar)
	}

	uniqueness := uniquenessRatio(ws)
	if len(ws) > 0 && uniqueness < minUniquenessRatio {
		issues = append(issues, IssueRepetitive)
	}

	alpha := alphaRatio(comment, charCount)
	if alpha < minAlphaRatio {
		issues = append(issues, IssueNotEnoughLetters)
	}

	dominant, dominantCount := dominantWord(ws)
	dominantRatio := 0.0
	if len(ws) > 0 {
		dominantRatio = float64(dominantCount) / float64(len(ws))
	}
	if dominantRatio > maxDominantWordRatio {
		issues = append(issues, IssueDominantWordSpam)
	}

	return ValidationResult{
		Valid:  len(issues) == 0,
		Issues: issues,
		Details: ValidationDetails{
			WordCount:         len(ws),
			CharCount:         charCount,
			UniquenessRatio:   round2(uniqueness),
			SimilarityPercent: similarity,
			AlphaRatio:        round2(alpha),
			DominantWord:      dominant,
			DominantWordRatio: round2(dominantRatio),
		},
	}
}

func containsHebrew(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool {
		return r >= hebrewBlockStart && r <= hebrewBlockEnd
	}) >= 0
}

// alphaRatio 英文字母数 / 字符总数，空文本为 0
func alphaRatio(text string, charCount int) float64 {
	if charCount == 0 {
		return 0
	}
	letters := 0
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	return float64(letters) / float64(charCount)
}

// dominantWord 出现次数最多的词，次数相同时取先达到该次数的词
func dominantWord(ws []string) (string, int) {
	counts := make(map[string]int, len(ws))
	best, bestCount := "", 0
	for _, w := range ws {
		counts[w]++
		if counts[w] > bestCount {
			best, bestCount = w, counts[w]
		}
	}
	return best, bestCount
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
