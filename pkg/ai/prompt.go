package ai

import (
	"fmt"
	"strings"
)

func generatorSystemPrompt() string {
	return "You write assessment questions for homeschool students. Respond only with a JSON object of the form " +
		`{"questions":[{"question_type":"...","question_text":"...","options":["A) ...","B) ..."],"correct_answer":"...","hint_1":"...","hint_2":"..."}]}. ` +
		"Multiple choice answers are a single option letter. Numeric answers are plain numbers. Equation answers are algebraic " +
		"expressions using * / ^ and single-letter variables. hint_1 is a gentle nudge, hint_2 a stronger one; neither may reveal the answer."
}

func buildQuestionPrompt(req QuestionRequest) string {
	description := strings.TrimSpace(req.ObjectiveDescription)
	if description == "" {
		description = "No description provided"
	}
	standards := "None"
	if len(req.StandardCodes) > 0 {
		standards = strings.Join(req.StandardCodes, ", ")
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Create %d questions assessing this learning objective.\n\n", req.Count))
	builder.WriteString("## Objective\n")
	builder.WriteString(req.ObjectiveTitle)
	builder.WriteString("\n\n## Description\n")
	builder.WriteString(description)
	builder.WriteString("\n\n## Subject\n")
	builder.WriteString(req.Subject)
	builder.WriteString(fmt.Sprintf("\n\n## Grade Level\n%d", req.GradeLevel))
	builder.WriteString("\n\n## Standards\n")
	builder.WriteString(standards)
	builder.WriteString("\n\n## Question Types\n")
	for _, mix := range req.Mix {
		builder.WriteString(fmt.Sprintf("- %d %s\n", mix.Count, strings.ReplaceAll(mix.Type, "_", " ")))
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func judgeSystemPrompt() string {
	return "You grade short written answers from students. Accept answers that express the expected idea even when worded " +
		`differently. Respond only with a JSON object {"correct": true|false, "feedback": "one or two encouraging sentences"}.`
}

func buildJudgePrompt(input JudgeInput) string {
	builder := strings.Builder{}
	builder.WriteString("## Question\n")
	builder.WriteString(input.Question)
	builder.WriteString("\n\n## Expected Answer\n")
	builder.WriteString(input.ExpectedAnswer)
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(input.StudentAnswer)
	builder.WriteString("\n\nReturn JSON.")
	return builder.String()
}
