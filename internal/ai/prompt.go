package ai

import (
	"fmt"
	"strings"

	"onlevel/internal/model"
)

// Categories are the evaluation categories, in display order.
var Categories = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem-Solving",
	"Cultural & Role Fit",
	"Confidence & Clarity",
}

const feedbackSystemPrompt = `You are a professional interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories.`

// FormatTranscript renders turns as "- role: content" lines.
func FormatTranscript(turns []model.TranscriptTurn) string {
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "- %s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}

// BuildFeedbackPrompt builds the system and user prompts for grading a transcript
func BuildFeedbackPrompt(turns []model.TranscriptTurn) (string, string) {
	userPrompt := fmt.Sprintf(`You are an AI interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories. Be thorough and detailed in your analysis. Don't be lenient with the candidate. If there are mistakes or areas for improvement, point them out.

Transcript:
%s
Please score the candidate from 0 to 100 in the following areas. Do not add categories other than the ones provided:
- Communication Skills: Clarity, articulation, structured responses.
- Technical Knowledge: Understanding of key concepts for the role.
- Problem-Solving: Ability to analyze problems and propose solutions.
- Cultural & Role Fit: Alignment with company values and job role.
- Confidence & Clarity: Confidence in responses, engagement, and clarity.

Return JSON with totalScore, categoryScores (name, score, comment), strengths, areasForImprovement and finalAssessment.`, FormatTranscript(turns))

	return feedbackSystemPrompt, userPrompt
}

// QuestionParams describes the interview to prepare questions for.
type QuestionParams struct {
	Role      string
	Level     string
	TechStack []string
	Type      string
	Amount    int
}

// BuildQuestionsPrompt builds the prompts for interview question generation
func BuildQuestionsPrompt(p QuestionParams) (string, string) {
	systemPrompt := `You prepare questions for job interviews. Return only valid JSON.`

	userPrompt := fmt.Sprintf(`Prepare questions for a job interview.
The job role is %s.
The job experience level is %s.
The tech stack used in the job is: %s.
The focus between behavioural and technical questions should lean towards: %s.
The amount of questions required is: %d.
The questions are going to be read by a voice assistant so do not use "/" or "*" or any other special characters which might break the voice assistant.

Return JSON formatted like this:
{"questions": ["Question 1", "Question 2", "Question 3"]}`,
		p.Role, p.Level, strings.Join(p.TechStack, ", "), p.Type, p.Amount)

	return systemPrompt, userPrompt
}
