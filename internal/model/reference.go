package model

// Reference identifies one piece of provenance attached to a budget.
type Reference int

const (
	ReferenceBudgetYear Reference = iota
	ReferenceFileName
	ReferenceSheet
	ReferenceColumn
)

// References lists all references in display order.
var References = []Reference{
	ReferenceBudgetYear,
	ReferenceFileName,
	ReferenceSheet,
	ReferenceColumn,
}

// DisplayName is the German label used in spreadsheet comments.
func (r Reference) DisplayName() string {
	switch r {
	case ReferenceBudgetYear:
		return "Haushaltsjahr"
	case ReferenceFileName:
		return "Datei"
	case ReferenceSheet:
		return "Registerkarte"
	case ReferenceColumn:
		return "Spalte"
	default:
		return "unknown"
	}
}

func (r Reference) String() string {
	switch r {
	case ReferenceBudgetYear:
		return "BUDGET_YEAR"
	case ReferenceFileName:
		return "FILE_NAME"
	case ReferenceSheet:
		return "SHEET"
	case ReferenceColumn:
		return "COLUMN"
	default:
		return "UNKNOWN"
	}
}
