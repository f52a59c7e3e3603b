package core

// Materialization constants for node storage strategies.
const (
	MaterializationView        = "view"
	MaterializationTable       = "table"
	MaterializationIncremental = "incremental"
)

// ValidMaterialization reports whether s names a supported strategy.
func ValidMaterialization(s string) bool {
	switch s {
	case MaterializationView, MaterializationTable, MaterializationIncremental:
		return true
	}
	return false
}
