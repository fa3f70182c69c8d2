package gemini

// Minutes is the structured summary returned by the model. The field set is
// fixed by the response schema sent with every request, so a successful
// parse always carries every section, possibly empty.
type Minutes struct {
	Title            string         `json:"title"`
	Date             string         `json:"date"`
	TimeRange        string         `json:"time_range"`
	ExecutiveSummary string         `json:"executive_summary"`
	Objective        string         `json:"objective"`
	Participants     []Contribution `json:"participants"`
	KeyPoints        []string       `json:"key_points"`
	ActionPlan       []PlannedTask  `json:"action_plan"`
	Topics           []string       `json:"topics"`
}

// Contribution is one participant's part of the meeting.
type Contribution struct {
	Name         string `json:"name"`
	Contribution string `json:"contribution"`
}

// PlannedTask is one entry of the action plan.
type PlannedTask struct {
	Task     string `json:"task"`
	Assignee string `json:"assignee"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

// minutesSchema constrains the model's output via structured-output mode.
// Types use the API's uppercase names.
var minutesSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"title": map[string]any{"type": "STRING"},
		"date":  map[string]any{"type": "STRING", "description": "Meeting date, YYYY-MM-DD."},
		"time_range": map[string]any{
			"type":        "STRING",
			"description": "Start and end time of day, e.g. '10:00 - 10:30'.",
		},
		"executive_summary": map[string]any{"type": "STRING"},
		"objective":         map[string]any{"type": "STRING"},
		"participants": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"name":         map[string]any{"type": "STRING"},
					"contribution": map[string]any{"type": "STRING"},
				},
				"required": []string{"name", "contribution"},
			},
		},
		"key_points": map[string]any{
			"type":  "ARRAY",
			"items": map[string]any{"type": "STRING"},
		},
		"action_plan": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"task":     map[string]any{"type": "STRING"},
					"assignee": map[string]any{"type": "STRING"},
					"due_date": map[string]any{"type": "STRING", "description": "YYYY-MM-DD or 'TBD'."},
					"priority": map[string]any{"type": "STRING", "description": "High, Medium, or Low."},
					"status":   map[string]any{"type": "STRING", "description": "Pending, In progress, or Done."},
				},
				"required": []string{"task", "assignee", "due_date", "priority", "status"},
			},
		},
		"topics": map[string]any{
			"type":        "ARRAY",
			"items":       map[string]any{"type": "STRING"},
			"description": "5-10 keywords for tagging.",
		},
	},
	"required": []string{
		"title", "date", "time_range", "executive_summary", "objective",
		"participants", "key_points", "action_plan", "topics",
	},
}
