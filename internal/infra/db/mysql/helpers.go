package mysql

// stringOrDash keeps non-nullable columns safe when a field arrives empty.
func stringOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
