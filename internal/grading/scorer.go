package grading

import (
	"math"
	"strings"
)

const (
	maxComponentScore = 100
	maxTotalScore     = 200
)

var connectiveWords = []string{"however", "therefore", "because", "although", "moreover", "furthermore"}

var ungrammaticalPatterns = []string{"me are", "me is", "me have", "i are"}

var opinionWords = []string{"think", "believe", "feel", "opinion", "agree", "disagree", "consider"}

var opinionPhrases = []string{"i think", "i believe", "in my opinion", "i feel", "my experience"}

type topicKeywords struct {
	match    string
	keywords []string
}

var workKeywords = []string{"job", "career", "office", "colleague", "salary", "meeting", "project", "manager", "skills", "business"}

// 按主题名子串匹配，顺序即优先级
var topicKeywordTable = []topicKeywords{
	{"travel", []string{"trip", "journey", "destination", "flight", "hotel", "passport", "tourist", "explore", "culture", "adventure"}},
	{"food", []string{"meal", "recipe", "cook", "taste", "restaurant", "delicious", "ingredient", "dish", "flavor", "healthy"}},
	{"work", workKeywords},
	{"job", workKeywords},
	{"tech", []string{"computer", "internet", "software", "device", "digital", "online", "smartphone", "innovation", "data", "app"}},
	{"health", []string{"exercise", "diet", "doctor", "sleep", "stress", "healthy", "medicine", "fitness", "habit", "wellbeing"}},
	{"environment", []string{"climate", "pollution", "recycle", "energy", "nature", "planet", "waste", "sustainable", "green", "forest"}},
	{"education", []string{"school", "student", "teacher", "learn", "study", "university", "class", "knowledge", "exam", "lesson"}},
	{"sport", []string{"team", "game", "match", "player", "train", "coach", "win", "competition", "fitness", "score"}},
	{"family", []string{"parents", "children", "mother", "father", "sibling", "home", "relatives", "together", "love", "support"}},
	{"culture", []string{"tradition", "music", "art", "festival", "language", "history", "custom", "heritage", "film", "literature"}},
}

var genericKeywords = []string{"example", "important", "reason", "experience", "future", "because", "people", "life", "problem", "idea"}

// WordUsage 单个必用词的使用情况
type WordUsage struct {
	Word    string `json:"word"`
	Used    bool   `json:"used"`
	Context string `json:"context,omitempty"`
}

type Feedback struct {
	Clarity          string `json:"clarity"`
	Grammar          string `json:"grammar"`
	Vocabulary       string `json:"vocabulary"`
	ContentRelevance string `json:"contentRelevance"`
	Overall          string `json:"overall"`
}

// ScoringResult 各维度 0-100，总分 0-200
type ScoringResult struct {
	Clarity          int         `json:"clarity"`
	Grammar          int         `json:"grammar"`
	Vocabulary       int         `json:"vocabulary"`
	ContentRelevance int         `json:"contentRelevance"`
	Total            int         `json:"total"`
	Feedback         Feedback    `json:"feedback"`
	WordUsage        []WordUsage `json:"wordUsage"`
}

// Score 对评论文本做多维度启发式评分，结果只依赖输入
func Score(comment, source string, requiredWords []string, topic string) ScoringResult {
	ws := words(comment)
	sents := sentences(comment)

	clarity := clarityScore(comment, ws, sents)
	grammar := grammarScore(comment, sents)
	vocabulary, usage := vocabularyScore(comment, requiredWords)
	content := contentRelevanceScore(comment, source, topic, len(ws))

	total := clarity + grammar + vocabulary + content
	if total > maxTotalScore {
		total = maxTotalScore
	}

	return ScoringResult{
		Clarity:          clarity,
		Grammar:          grammar,
		Vocabulary:       vocabulary,
		ContentRelevance: content,
		Total:            total,
		Feedback: Feedback{
			Clarity:          pick(clarityBands, clarity),
			Grammar:          pick(grammarBands, grammar),
			Vocabulary:       pick(vocabularyBands, vocabulary),
			ContentRelevance: pick(contentBands, content),
			Overall:          pick(overallBands, total),
		},
		WordUsage: usage,
	}
}

func clarityScore(text string, ws, sents []string) int {
	score := 0
	wc := len(ws)

	switch {
	case wc >= 40:
		score += 30
	case wc >= 25:
		score += 25
	case wc >= 15:
		score += 20
	case wc >= 10:
		score += 15
	}

	if len(sents) > 0 {
		avg := float64(wc) / float64(len(sents))
		switch {
		case avg >= 8 && avg <= 20:
			score += 30
		case avg >= 5:
			score += 20
		case avg >= 3:
			score += 10
		}
	}

	switch {
	case len(sents) >= 3:
		score += 25
	case len(sents) >= 2:
		score += 15
	}

	if containsAnyWord(text, connectiveWords) {
		score += 15
	}

	return clamp(score, maxComponentScore)
}

func grammarScore(text string, sents []string) int {
	score := 30.0

	if len(sents) > 0 {
		capitalized := 0
		for _, s := range sents {
			if startsUpper(s) {
				capitalized++
			}
		}
		score += float64(capitalized) / float64(len(sents)) * 30
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?") {
		score += 25
	}

	lower := strings.ToLower(text)
	clean := true
	for _, p := range ungrammaticalPatterns {
		if strings.Contains(lower, p) {
			clean = false
			break
		}
	}
	if clean {
		score += 15
	}

	return clamp(int(math.Round(score)), maxComponentScore)
}

func vocabularyScore(text string, required []string) (int, []WordUsage) {
	usage := make([]WordUsage, 0, len(required))
	used := 0
	for _, w := range required {
		u := WordUsage{Word: w}
		if strings.TrimSpace(w) != "" {
			if loc := wholeWordPattern(w).FindStringIndex(text); loc != nil {
				u.Used = true
				u.Context = contextSnippet(text, loc[0], loc[1])
				used++
			}
		}
		usage = append(usage, u)
	}

	base := 70.0
	if len(required) > 0 {
		base = float64(used) / float64(len(required)) * 70
	}
	score := base
	if used == len(required) {
		score += 20
	}
	if uniquenessRatio(lowerWords(text)) > 0.8 {
		score += 10
	}

	return clamp(int(math.Round(score)), maxComponentScore), usage
}

func keywordsForTopic(topic string) []string {
	lower := strings.ToLower(topic)
	for _, entry := range topicKeywordTable {
		if strings.Contains(lower, entry.match) {
			return entry.keywords
		}
	}
	return genericKeywords
}

func contentRelevanceScore(text, source, topic string, wc int) int {
	score := 25
	lower := strings.ToLower(text)

	if strings.Contains(source, "?") {
		if containsAnyWord(text, opinionWords) {
			score += 20
		}
		if wc > 20 {
			score += 15
		}
	}

	keywordPoints := 0
	for _, k := range keywordsForTopic(topic) {
		if wholeWordPattern(k).MatchString(text) {
			keywordPoints += 4
		}
	}
	if keywordPoints > 20 {
		keywordPoints = 20
	}
	score += keywordPoints

	for _, p := range opinionPhrases {
		if strings.Contains(lower, p) {
			score += 10
			break
		}
	}

	if wc >= 50 {
		score += 10
	}

	return clamp(score, maxComponentScore)
}
