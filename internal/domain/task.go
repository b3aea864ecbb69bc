package domain

// ==================== ENUMS ====================

// Status is a workflow state. The server stores whatever value a client sends,
// so a Status is not guaranteed to be one of the constants below.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type Category string

const (
	CategoryBug         Category = "Bug"
	CategoryFeature     Category = "Feature"
	CategoryEnhancement Category = "Enhancement"
)

// Statuses lists the workflow states in board column order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// ==================== MODELS ====================

// Attachment is file metadata embedded in a task. URL is a client-local
// reference; the server never dereferences it.
type Attachment struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Task struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	Category    Category     `json:"category"`
	Attachments []Attachment `json:"attachments"`
}

// NewTask builds a task with the board defaults.
func NewTask(id, text string) Task {
	return Task{
		ID:          id,
		Text:        text,
		Status:      StatusTodo,
		Priority:    PriorityMedium,
		Category:    CategoryFeature,
		Attachments: []Attachment{},
	}
}

// Clone returns a deep copy. Attachments is never nil in the copy.
func (t Task) Clone() Task {
	c := t
	c.Attachments = make([]Attachment, len(t.Attachments))
	copy(c.Attachments, t.Attachments)
	return c
}

// TaskPatch carries the fields of a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Text        *string       `json:"text,omitempty"`
	Status      *Status       `json:"status,omitempty"`
	Priority    *Priority     `json:"priority,omitempty"`
	Category    *Category     `json:"category,omitempty"`
	Attachments *[]Attachment `json:"attachments,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Status == nil && p.Priority == nil && p.Category == nil && p.Attachments == nil
}

// ApplyTo shallow-merges the patch into t.
func (p TaskPatch) ApplyTo(t *Task) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Attachments != nil {
		t.Attachments = make([]Attachment, len(*p.Attachments))
		copy(t.Attachments, *p.Attachments)
	}
}

// CanTransition reports whether the board workflow allows moving a task from
// one status to another. Only clients consult it: a task in todo must pass
// through inprogress before reaching done.
func CanTransition(from, to Status) bool {
	return !(from == StatusTodo && to == StatusDone)
}
