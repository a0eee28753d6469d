package dto

import "time"

// SelectionQuery identifies which results table a request addresses.
type SelectionQuery struct {
	Variant string `query:"variant"`
	Mode    string `query:"mode"`
	Version string `query:"version"`
	Step    int    `query:"step"`
	File    string `query:"file"`
}

// CategoryQuery selects which category accuracies are returned.
type CategoryQuery struct {
	Filter string   `query:"filter" validate:"omitempty,oneof=top bottom custom"`
	N      int      `query:"n" validate:"omitempty,min=5,max=20"`
	Custom []string `query:"-"`
}

// IncorrectQuery bounds the incorrect prediction listing.
type IncorrectQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=10000"`
}

// RenderQuery controls the rasterized drawing size.
type RenderQuery struct {
	Size  int `query:"size" validate:"omitempty,min=16,max=1024"`
	Width int `query:"width" validate:"omitempty,min=1,max=64"`
}

// SelectionOptions lists the values the dashboard selectors offer.
type SelectionOptions struct {
	PromptVariants []string             `json:"prompt_variants"`
	InputModes     []string             `json:"input_modes"`
	Versions       []string             `json:"versions"`
	Steps          []int                `json:"steps"`
	LegacyFiles    []string             `json:"legacy_files"`
	StoredFiles    []StoredFileResponse `json:"stored_files"`
}

// StoredFileResponse describes a results file already held in the database.
type StoredFileResponse struct {
	FileName string    `json:"file_name"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// RecordResponse is a single evaluation row as displayed.
type RecordResponse struct {
	Index       int    `json:"index"`
	Category    string `json:"category"`
	Prediction  string `json:"prediction"`
	IsCorrect   bool   `json:"is_correct"`
	MatchReason string `json:"match_reason"`
	CountryCode string `json:"countrycode"`
	Timestamp   string `json:"timestamp"`
	HasDrawing  bool   `json:"has_drawing"`
}

// SpreadResponse summarizes how accuracy varies between categories.
type SpreadResponse struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// OverviewResponse is the headline view of a results table.
type OverviewResponse struct {
	File            string           `json:"file"`
	Columns         []string         `json:"columns"`
	TotalRecords    int              `json:"total_records"`
	CorrectRecords  int              `json:"correct_records"`
	Accuracy        float64          `json:"accuracy"`
	AccuracyPercent float64          `json:"accuracy_percent"`
	Empty           bool             `json:"empty"`
	CategoryCount   int              `json:"category_count"`
	Spread          *SpreadResponse  `json:"spread,omitempty"`
	Preview         []RecordResponse `json:"preview"`
	LoadedAt        time.Time        `json:"loaded_at"`
}

// CategoryAccuracyResponse is one bar of the category chart.
type CategoryAccuracyResponse struct {
	Category string  `json:"category"`
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
	Percent  float64 `json:"percent"`
}

// CategoryListResponse wraps the selected category accuracies.
type CategoryListResponse struct {
	File            string                     `json:"file"`
	Filter          string                     `json:"filter"`
	N               int                        `json:"n,omitempty"`
	TotalCategories int                        `json:"total_categories"`
	Items           []CategoryAccuracyResponse `json:"items"`
}

// IncorrectEntry is one selectable incorrect prediction.
type IncorrectEntry struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// IncorrectListResponse lists incorrect predictions in table order.
type IncorrectListResponse struct {
	File    string           `json:"file"`
	Total   int              `json:"total"`
	Items   []IncorrectEntry `json:"items"`
	Message string           `json:"message,omitempty"`
}

// FieldResponse is a labelled detail value.
type FieldResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// IncorrectDetailResponse is the full breakdown of an incorrect prediction.
type IncorrectDetailResponse struct {
	File            string          `json:"file"`
	Index           int             `json:"index"`
	Label           string          `json:"label"`
	Fields          []FieldResponse `json:"fields"`
	RenderAvailable bool            `json:"render_available"`
	DrawingURL      string          `json:"drawing_url,omitempty"`
	Notice          string          `json:"notice,omitempty"`
}

// PublishResponse carries the public URL of a published drawing.
type PublishResponse struct {
	File  string `json:"file"`
	Index int    `json:"index"`
	URL   string `json:"url"`
}
