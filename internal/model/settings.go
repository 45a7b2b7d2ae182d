package model

// FocusToday is the user's study focus note for a given day.
type FocusToday struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// Settings is the per-user application settings record.
type Settings struct {
	ExamDate       *string           `json:"examDate"`
	FocusToday     *FocusToday       `json:"focusToday"`
	CustomSubjects []string          `json:"customSubjects"`
	SubjectRenames map[string]string `json:"subjectRenames"`
	Voice          *string           `json:"voice"`
}

// UpdateSettingsRequest carries a partial settings update; nil fields keep
// their stored value.
type UpdateSettingsRequest struct {
	ExamDate       *string           `json:"examDate"`
	FocusToday     *FocusToday       `json:"focusToday"`
	CustomSubjects []string          `json:"customSubjects"`
	SubjectRenames map[string]string `json:"subjectRenames"`
	Voice          *string           `json:"voice"`
}
