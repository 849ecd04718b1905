package ai

import (
	"strconv"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
)

// Input limits.
const (
	MaxSourceChars        = 100_000
	DefaultFlashcardCount = 10
	MaxFlashcardCount     = 50
)

// SummaryStyle shapes a summary.
type SummaryStyle string

const (
	StyleBrief    SummaryStyle = "brief"
	StyleDetailed SummaryStyle = "detailed"
	StyleBullets  SummaryStyle = "bullets"
)

// SummaryInput is text to summarize.
type SummaryInput struct {
	Text  string       `json:"text"`
	Style SummaryStyle `json:"style,omitempty"`
}

func (in SummaryInput) Validate() error {
	fields := errors.FieldErrors{}
	switch {
	case strings.TrimSpace(in.Text) == "":
		fields.Add("text", "is required")
	case len(in.Text) > MaxSourceChars:
		fields.Add("text", "must be at most "+strconv.Itoa(MaxSourceChars)+" characters")
	}
	switch in.Style {
	case "", StyleBrief, StyleDetailed, StyleBullets:
	default:
		fields.Add("style", "must be one of: brief, detailed, bullets")
	}
	return fields.Err("summary input")
}

// SummaryOutput is a generated summary.
type SummaryOutput struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

func (out SummaryOutput) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(out.Summary) == "" {
		fields.Add("summary", "is required")
	}
	return fields.Err("summary")
}

// FlashcardInput is source material (text, topic or both) for new cards.
type FlashcardInput struct {
	Text  string `json:"text,omitempty"`
	Topic string `json:"topic,omitempty"`
	Count int    `json:"count,omitempty"`
}

func (in FlashcardInput) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(in.Text) == "" && strings.TrimSpace(in.Topic) == "" {
		fields.Add("text", "text or topic is required")
	}
	if len(in.Text) > MaxSourceChars {
		fields.Add("text", "must be at most "+strconv.Itoa(MaxSourceChars)+" characters")
	}
	if in.Count < 1 || in.Count > MaxFlashcardCount {
		fields.Add("count", "must be between 1 and "+strconv.Itoa(MaxFlashcardCount))
	}
	return fields.Err("flashcard input")
}

// Card is a generated question/answer pair.
type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashcardOutput holds generated cards, at most the requested count.
type FlashcardOutput struct {
	Cards []Card `json:"cards"`
}

func (out FlashcardOutput) Validate() error {
	fields := errors.FieldErrors{}
	if len(out.Cards) == 0 {
		fields.Add("cards", "must not be empty")
	}
	for i, c := range out.Cards {
		prefix := "cards[" + strconv.Itoa(i) + "]."
		if strings.TrimSpace(c.Question) == "" {
			fields.Add(prefix+"question", "is required")
		}
		if strings.TrimSpace(c.Answer) == "" {
			fields.Add(prefix+"answer", "is required")
		}
	}
	return fields.Err("flashcards")
}

// StudyPlanOutput is a generated plan, ready to be stored.
type StudyPlanOutput struct {
	Title string             `json:"title"`
	Goal  string             `json:"goal"`
	Tasks []entity.StudyTask `json:"tasks"`
}

func (out StudyPlanOutput) Validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(out.Title) == "" {
		fields.Add("title", "is required")
	}
	if len(out.Tasks) == 0 {
		fields.Add("tasks", "must not be empty")
	}
	for i, t := range out.Tasks {
		prefix := "tasks[" + strconv.Itoa(i) + "]."
		if strings.TrimSpace(t.Topic) == "" {
			fields.Add(prefix+"topic", "is required")
		}
		if t.Duration < 0 {
			fields.Add(prefix+"duration", "must not be negative")
		}
	}
	return fields.Err("study plan")
}

var studyPlanFlow = &Flow[entity.StudyPlanInput, StudyPlanOutput]{
	Name: "study plan",
	Prompt: template.Must(template.New("study-plan").Parse(`You are an expert tutor designing a day-by-day study plan.

Subject: {{.Subject}}
Goal: {{.Goal}}
{{- if .Level}}
Current level: {{.Level}}
{{- end}}
Length: {{.DurationDays}} days, about {{.HoursPerDay}} hours per day.
First day: {{.StartDate}}

Return a title, a one-sentence goal and an ordered list of study tasks.
Each task has a topic, a short description, a duration in minutes, the date
(YYYY-MM-DD) it is scheduled for, and optionally a resource (book, site or
video) to study from. Do not exceed the daily hours.`)),
	Schema: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
			"goal":  {Type: genai.TypeString},
			"tasks": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"topic":       {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"duration":    {Type: genai.TypeInteger, Description: "minutes"},
						"date":        {Type: genai.TypeString, Description: "YYYY-MM-DD"},
						"resource":    {Type: genai.TypeString},
					},
					Required: []string{"topic", "description", "duration", "date"},
				},
			},
		},
		Required: []string{"title", "goal", "tasks"},
	},
	Post: finishStudyPlan,
}

// finishStudyPlan gives every task an id, marks it not done, and spreads
// tasks with a missing or out-of-range date evenly over the plan's days.
func finishStudyPlan(in entity.StudyPlanInput, out StudyPlanOutput) StudyPlanOutput {
	start, err := time.Parse(entity.DateLayout, in.StartDate)
	if err != nil {
		start = time.Now()
	}
	last := start.AddDate(0, 0, in.DurationDays-1)

	if strings.TrimSpace(out.Goal) == "" {
		out.Goal = in.Goal
	}
	tasks := make([]entity.StudyTask, len(out.Tasks))
	for i, t := range out.Tasks {
		t.ID = entity.NewID()
		t.Completed = false
		d, err := time.Parse(entity.DateLayout, t.Date)
		if err != nil || d.Before(start) || d.After(last) {
			t.Date = entity.Day(start.AddDate(0, 0, i*in.DurationDays/len(out.Tasks)))
		}
		tasks[i] = t
	}
	out.Tasks = tasks
	return out
}

var summaryFlow = &Flow[SummaryInput, SummaryOutput]{
	Name: "summary",
	Prompt: template.Must(template.New("summary").Parse(`Summarize the text below.
{{- if eq .Style "detailed"}}
Write a detailed summary of several paragraphs.
{{- else if eq .Style "bullets"}}
Write the summary as a short list of bullet points.
{{- else}}
Write a brief summary of two or three sentences.
{{- end}}
Also list the key points as short standalone sentences.

Text:
"""
{{.Text}}
"""`)),
	Schema: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":   {Type: genai.TypeString},
			"keyPoints": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"summary", "keyPoints"},
	},
	Post: func(_ SummaryInput, out SummaryOutput) SummaryOutput {
		points := make([]string, 0, len(out.KeyPoints))
		for _, p := range out.KeyPoints {
			if p = strings.TrimSpace(p); p != "" {
				points = append(points, p)
			}
		}
		out.Summary = strings.TrimSpace(out.Summary)
		out.KeyPoints = points
		return out
	},
}

var flashcardFlow = &Flow[FlashcardInput, FlashcardOutput]{
	Name: "flashcards",
	Prompt: template.Must(template.New("flashcards").Parse(`Write up to {{.Count}} flashcards for self-study.
{{- if .Topic}}
Topic: {{.Topic}}
{{- end}}
Each card has one clear question and a concise answer. Avoid duplicates.
{{- if .Text}}

Base the cards on this material:
"""
{{.Text}}
"""
{{- end}}`)),
	Schema: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"cards": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question": {Type: genai.TypeString},
						"answer":   {Type: genai.TypeString},
					},
					Required: []string{"question", "answer"},
				},
			},
		},
		Required: []string{"cards"},
	},
	Post: func(in FlashcardInput, out FlashcardOutput) FlashcardOutput {
		if len(out.Cards) > in.Count {
			out.Cards = out.Cards[:in.Count]
		}
		for i := range out.Cards {
			out.Cards[i].Question = strings.TrimSpace(out.Cards[i].Question)
			out.Cards[i].Answer = strings.TrimSpace(out.Cards[i].Answer)
		}
		return out
	},
}
