package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/resumeflow/internal/llm"
)

// Extractor turns plain resume text into a structured JSON document.
type Extractor interface {
	Extract(ctx context.Context, text string) (json.RawMessage, error)
}

// EducationItem, ExperienceItem, ProjectItem and ResumeStructured describe
// the document both extractors produce.
type EducationItem struct {
	School      *string `json:"school"`
	Degree      *string `json:"degree"`
	Major       *string `json:"major"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Description *string `json:"description"`
}

type ExperienceItem struct {
	Company    *string  `json:"company"`
	Title      *string  `json:"title"`
	Location   *string  `json:"location"`
	StartDate  *string  `json:"start_date"`
	EndDate    *string  `json:"end_date"`
	Highlights []string `json:"highlights"`
}

type ProjectItem struct {
	Name       *string  `json:"name"`
	Role       *string  `json:"role"`
	StartDate  *string  `json:"start_date"`
	EndDate    *string  `json:"end_date"`
	Highlights []string `json:"highlights"`
}

type ResumeStructured struct {
	Name       *string          `json:"name"`
	Email      *string          `json:"email"`
	Phone      *string          `json:"phone"`
	Location   *string          `json:"location"`
	Summary    *string          `json:"summary"`
	Skills     []string         `json:"skills"`
	Education  []EducationItem  `json:"education"`
	Experience []ExperienceItem `json:"experience"`
	Projects   []ProjectItem    `json:"projects"`
}

// ErrExtraction marks failures the server reports as 502.
var ErrExtraction = errors.New("structured extraction failed")

var (
	reEmail  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	rePhone  = regexp.MustCompile(`\+?\d[\d \-()]{6,}\d`)
	reSkills = regexp.MustCompile(`(?im)^\s*(skills|技能)\s*[:：]\s*(.+)$`)
	reFence  = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")
	reObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// HeuristicExtractor derives a few fields with regular expressions. It
// needs no model and is deterministic, which makes it the default for
// local runs and tests.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(_ context.Context, text string) (json.RawMessage, error) {
	out := ResumeStructured{
		Skills:     []string{},
		Education:  []EducationItem{},
		Experience: []ExperienceItem{},
		Projects:   []ProjectItem{},
	}
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			out.Name = &l
			break
		}
	}
	if m := reEmail.FindString(text); m != "" {
		out.Email = &m
	}
	if m := rePhone.FindString(text); m != "" {
		m = strings.TrimSpace(m)
		out.Phone = &m
	}
	if m := reSkills.FindStringSubmatch(text); m != nil {
		for _, s := range strings.FieldsFunc(m[2], func(r rune) bool { return r == ',' || r == '，' || r == ';' || r == '、' }) {
			if s = strings.TrimSpace(s); s != "" {
				out.Skills = append(out.Skills, s)
			}
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode structured resume: %w", err)
	}
	return b, nil
}

const extractSystemMessage = "You are a resume parser. Convert the resume text into JSON. Respond with strict JSON only, no narration. The fields must match this structure:\n"

// LLMExtractor asks an OpenAI-compatible model for the structure and
// validates the answer against the resume schema.
type LLMExtractor struct {
	Client llm.Client
	Model  string
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) (json.RawMessage, error) {
	if e.Client == nil || e.Model == "" {
		return nil, fmt.Errorf("%w: extractor not configured", ErrExtraction)
	}
	hint, err := json.Marshal(schemaHint())
	if err != nil {
		return nil, fmt.Errorf("encode schema hint: %w", err)
	}
	log.Debug().Str("stage", "extract").Str("model", e.Model).Int("text_len", len(text)).Msg("extract prompt")
	resp, err := e.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemMessage + string(hint)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: llm call: %v", ErrExtraction, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrExtraction)
	}
	raw := jsonFromReply(resp.Choices[0].Message.Content)
	if err := validateResume([]byte(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	// Round trip through the typed struct to fill absent lists and drop
	// fields outside the structure.
	var rs ResumeStructured
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", ErrExtraction, err)
	}
	normalizeLists(&rs)
	b, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("encode structured resume: %w", err)
	}
	return b, nil
}

// jsonFromReply finds the JSON document in a model reply: the whole reply
// when it parses, else the first fenced block, else the outermost {...} span.
func jsonFromReply(s string) string {
	s = strings.TrimSpace(s)
	if json.Valid([]byte(s)) {
		return s
	}
	if m := reFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := reObject.FindString(s); m != "" {
		return m
	}
	return s
}

func normalizeLists(rs *ResumeStructured) {
	if rs.Skills == nil {
		rs.Skills = []string{}
	}
	if rs.Education == nil {
		rs.Education = []EducationItem{}
	}
	if rs.Experience == nil {
		rs.Experience = []ExperienceItem{}
	}
	if rs.Projects == nil {
		rs.Projects = []ProjectItem{}
	}
	for i := range rs.Experience {
		if rs.Experience[i].Highlights == nil {
			rs.Experience[i].Highlights = []string{}
		}
	}
	for i := range rs.Projects {
		if rs.Projects[i].Highlights == nil {
			rs.Projects[i].Highlights = []string{}
		}
	}
}

func schemaHint() map[string]any {
	str := "string or null"
	return map[string]any{
		"name": str, "email": str, "phone": str, "location": str, "summary": str,
		"skills": []string{"string"},
		"education": []map[string]any{{
			"school": str, "degree": str, "major": str,
			"start_date": str, "end_date": str, "description": str,
		}},
		"experience": []map[string]any{{
			"company": str, "title": str, "location": str,
			"start_date": str, "end_date": str, "highlights": []string{"string"},
		}},
		"projects": []map[string]any{{
			"name": str, "role": str,
			"start_date": str, "end_date": str, "highlights": []string{"string"},
		}},
	}
}

// resumeJSONSchema is the JSON Schema the model output must satisfy.
func resumeJSONSchema() map[string]any {
	optStr := map[string]any{"type": []string{"string", "null"}}
	strList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	object := func(props map[string]any) map[string]any {
		return map[string]any{"type": "object", "properties": props}
	}
	return object(map[string]any{
		"name": optStr, "email": optStr, "phone": optStr, "location": optStr, "summary": optStr,
		"skills": strList,
		"education": map[string]any{"type": "array", "items": object(map[string]any{
			"school": optStr, "degree": optStr, "major": optStr,
			"start_date": optStr, "end_date": optStr, "description": optStr,
		})},
		"experience": map[string]any{"type": "array", "items": object(map[string]any{
			"company": optStr, "title": optStr, "location": optStr,
			"start_date": optStr, "end_date": optStr, "highlights": strList,
		})},
		"projects": map[string]any{"type": "array", "items": object(map[string]any{
			"name": optStr, "role": optStr,
			"start_date": optStr, "end_date": optStr, "highlights": strList,
		})},
	})
}

// validateResume checks data against resumeJSONSchema.
func validateResume(data []byte) error {
	b, err := json.Marshal(resumeJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("resume.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("resume.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
