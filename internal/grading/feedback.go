package grading

// band 按阈值从高到低选择反馈文案
type band struct {
	min     int
	message string
}

func pick(bands []band, score int) string {
	for _, b := range bands {
		if score >= b.min {
			return b.message
		}
	}
	return bands[len(bands)-1].message
}

var clarityBands = []band{
	{80, "Your writing is clear and well organized."},
	{60, "Your ideas are mostly clear. Try linking them with words like \"because\" or \"however\"."},
	{40, "Your message is understandable, but longer and better connected sentences would help."},
	{0, "Try writing more complete sentences so your ideas are easier to follow."},
}

var grammarBands = []band{
	{80, "Great grammar and punctuation."},
	{60, "Good grammar overall. Check capitalization and end punctuation."},
	{40, "Some grammar issues. Start sentences with a capital letter and end them with punctuation."},
	{0, "Focus on basic sentence structure, capitalization and punctuation."},
}

var vocabularyBands = []band{
	{80, "Excellent use of the target vocabulary."},
	{60, "Good vocabulary use. Try to include all of the required words."},
	{40, "You used some of the required words. Practice the rest in your next answer."},
	{0, "Try to use the required vocabulary words in your answer."},
}

var contentBands = []band{
	{80, "Your answer is highly relevant and shares a clear opinion."},
	{60, "Your answer is relevant. Add your personal opinion or experience."},
	{40, "Your answer touches the topic. Add more details related to it."},
	{0, "Stay on topic and respond to the question in the text."},
}

var overallBands = []band{
	{160, "Excellent work! Your answer is clear, accurate and on topic."},
	{120, "Good job! A few improvements will make your answer even better."},
	{80, "Nice effort. Keep practicing the areas highlighted below."},
	{0, "Keep going! Focus on the feedback for each area and try again."},
}
