package models

// SafetyGuide is static reference content shown on the safety page.
// Rows are seeded by the migration and never written at runtime.
type SafetyGuide struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"` // immediate, response, preparation
	Content  string `json:"content"`
	Icon     string `json:"icon"`
	Priority int    `json:"priority"`
}
