package model

// FieldPatch is a sparse set of field changes for an event edit. A nil
// pointer means "leave untouched"; a pointer to a zero value means
// "explicitly set to empty". Callers build one value per edit request
// instead of passing per-field keyword arguments.
type FieldPatch struct {
	Name                *string
	Date                *string // DD/MM/YYYY, validated before it reaches the store
	Time                *string // HH:MM
	Link                *string
	FrequencyRule       *string
	RuleDetail          *string
	Status              *Status
	AutoClose           *bool
	AutoCloseDelayHours *float64
}

// IsEmpty reports whether the patch touches no field at all.
func (p FieldPatch) IsEmpty() bool {
	return p.Name == nil &&
		p.Date == nil &&
		p.Time == nil &&
		p.Link == nil &&
		p.FrequencyRule == nil &&
		p.RuleDetail == nil &&
		p.Status == nil &&
		p.AutoClose == nil &&
		p.AutoCloseDelayHours == nil
}

// TouchesSchedule reports whether the patch changes the occurrence date or
// time, which triggers the future-instant validation.
func (p FieldPatch) TouchesSchedule() bool {
	return p.Date != nil || p.Time != nil
}
