// analysis.go - The normalized expense record produced by the pipeline

package extract

import "time"

// Expense categories recognized by the ERP expense module.
const (
	CategoryTravel         = "travel"
	CategoryMeals          = "meals"
	CategoryAccommodation  = "accommodation"
	CategoryTransportation = "transportation"
	CategorySupplies       = "supplies"
	CategoryEquipment      = "equipment"
	CategoryTraining       = "training"
	CategoryOther          = "other"
)

// DefaultVendor is used when the model could not read a vendor name.
const DefaultVendor = "Unknown Vendor"

// FallbackDescription is the fixed placeholder used when the model output
// could not be parsed at all.
const FallbackDescription = "Không thể phân tích hóa đơn tự động"

var validCategories = map[string]bool{
	CategoryTravel:         true,
	CategoryMeals:          true,
	CategoryAccommodation:  true,
	CategoryTransportation: true,
	CategorySupplies:       true,
	CategoryEquipment:      true,
	CategoryTraining:       true,
	CategoryOther:          true,
}

// ExpenseAnalysis is the normalized output record. Every field is always
// present and type-correct, even when upstream parsing fails - the record is
// never partially populated.
type ExpenseAnalysis struct {
	Amount         float64 `json:"amount"`
	Vendor         string  `json:"vendor"`
	Date           string  `json:"date"` // YYYY-MM-DD
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	Confidence     int     `json:"confidence"` // 0-100
	ProjectMention bool    `json:"project_mention"`
	ProjectName    *string `json:"project_name"`
	ProjectCode    *string `json:"project_code"`
}

// FallbackAnalysis returns the fixed default record used when the model's
// output cannot be parsed. The user still receives something editable instead
// of an error.
func FallbackAnalysis(now time.Time) ExpenseAnalysis {
	return ExpenseAnalysis{
		Amount:         0,
		Vendor:         DefaultVendor,
		Date:           now.Format("2006-01-02"),
		Description:    FallbackDescription,
		Category:       CategoryOther,
		Confidence:     0,
		ProjectMention: false,
		ProjectName:    nil,
		ProjectCode:    nil,
	}
}
