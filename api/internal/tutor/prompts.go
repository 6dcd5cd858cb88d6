package tutor

import (
	"bytes"
	"fmt"
	"text/template"
)

const (
	solveSystem   = "You are a helpful assistant. Generate thoroughly answer for given question."
	extractSystem = "You are a helpful assistant that can analyze images."

	extractInstruction = "Extract question, choices and context of the question in markdown from the image. " +
		"Keep the language same as in the image. Say nothing else such as related formula or answer."

	answerRule = "<final answer (number or choice only, no sign or text, e.g., if answer is 42, just write 42, if answer is choice B, just write B)>"
)

const solvePromptTemplate = `Solve the following problem step-by-step and provide the final answer:

{{.Question}}

Response exactly like below template, say nothing else.
## Step 1:
...
## Step 2:
...

## Final Answer: {{.AnswerRule}}
`

const explainPromptTemplate = `You are {{.Persona}}, a tutor who is {{.PersonaGuide}}. Explain the following solution steps of the following question in a {{.Persona}} manner using {{.Style}} method. Make it easy to understand and engaging.

Question: {{.Question}}

Steps:
{{range .Steps}}{{.}}
{{end}}
Final Answer: {{.Answer}}

Teaching Method Description: {{.StyleGuide}}

## Solution:
<Solution with detailed explanation>
...

## Final Answer: {{.AnswerRule}}

The explanation should be in {{.Language}}.
Response:`

const augmentPromptTemplate = `Generate {{.Count}} new question similar to the following question for {{.Level}} students. The new question should be different in context but similar in language, difficulty level and structure. Provide the questions in markdown format.

Sample Question:
{{.Question}}

Say nothing else.

Response Template:
{{range .Numbers}}## Question {{.}}:
...
{{end}}New Questions:`

var (
	solveTmpl   = template.Must(template.New("solve").Parse(solvePromptTemplate))
	explainTmpl = template.Must(template.New("explain").Parse(explainPromptTemplate))
	augmentTmpl = template.Must(template.New("augment").Parse(augmentPromptTemplate))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
