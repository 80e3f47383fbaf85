package models

// Course is a catalog entry; offerings schedule it in a semester.
type Course struct {
	ID           string  `db:"id" json:"id"`
	Code         string  `db:"code" json:"code"`
	Title        string  `db:"title" json:"title"`
	Credits      float64 `db:"credits" json:"credits"`
	DepartmentID string  `db:"department_id" json:"department_id"`
}
