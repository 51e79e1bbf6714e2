// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"
)

const systemPrompt = `You are a research assistant. Respond only with a JSON object matching the requested schema. Do not include any text outside the JSON object.`

var planPromptTmpl = template.Must(template.New("plan").Parse(`Create a focused research plan for the topic: "{{.Topic}}".

Keep the plan concise but comprehensive, with:
- {{.MinQueries}}-{{.MaxQueries}} targeted search queries (each can use "web", "academic", or "both" sources)
- {{.MinAnalyses}}-{{.MaxAnalyses}} key analyses to perform
- a priority from 1 (most important) to 5 for every query and an importance from 1 to 5 for every analysis
- Prioritize the most important aspects to investigate

Consider different angles and potential controversies, but maintain focus on the core aspects.
Ensure the total number of steps (searches + analyses, counting a "both" query as two searches) does not exceed {{.MaxSteps}}.
`))

var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`Perform a {{.Type}} analysis on the search results. {{.Description}}
Consider all sources and their reliability.
Every finding must carry a confidence between 0 and 1.

Search results: {{.Results}}
`))

var gapPromptTmpl = template.Must(template.New("gaps").Parse(`Analyze the research results and identify limitations, knowledge gaps, and recommended follow-up actions.
Consider:
- Quality and reliability of sources
- Missing perspectives or data
- Areas needing deeper investigation
- Potential biases or conflicts
- Severity of each limitation must be between 2 and 10
- Priority of each follow-up action must be between 2 and 10
- Each knowledge gap should list additional search queries that would close it

Research results: {{.Results}}
Analysis findings: {{.Analyses}}
`))

var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`Synthesize all research findings, including gap analysis and follow-up research.
Highlight key conclusions and remaining uncertainties.
Every key finding must carry a confidence between 0 and 1.

Original results: {{.Results}}
Gap analysis: {{.Gaps}}
Additional findings: {{.Additional}}
`))

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// jsonContext serializes v for embedding in a prompt.
func jsonContext(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding prompt context: %w", err)
	}
	return string(b), nil
}
