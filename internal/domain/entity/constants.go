package entity

// Expense category constants
const (
	CategoryTravel        = "travel"
	CategoryMeals         = "meals"
	CategoryAccommodation = "accommodation"
	CategoryOfficeSupply  = "office_supplies"
	CategoryTransport     = "transport"
	CategorySoftware      = "software"
	CategoryOther         = "other"
)
