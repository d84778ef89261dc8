package domain

// Department groups agents and incident types.
type Department struct {
	ID       int64
	Name     string
	IsActive bool
}

// IncidentType is a ticket classification owned by one department.
type IncidentType struct {
	ID           int64
	DepartmentID int64
	Name         string
	IsActive     bool
}

// Priority carries the SLA window applied to new tickets.
type Priority struct {
	ID      int64
	Name    string
	DueDays int
}
