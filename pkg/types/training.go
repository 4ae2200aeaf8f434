package types

import "time"

// TrainingRecord is one row of the training roster kept in the Supabase
// Postgres database.
type TrainingRecord struct {
	ID           string     `db:"id"`
	EmployeeName string     `db:"employee_name" form:"employee_name"`
	EmployeeID   string     `db:"employee_id" form:"employee_id"`
	Course       string     `db:"course" form:"course"`
	Site         string     `db:"site" form:"site"`
	CompletedAt  *time.Time `db:"completed_at"`
	ExpiresAt    *time.Time `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// AuditEntry records who did what: report submissions, sync flushes, roster
// edits.
type AuditEntry struct {
	ID        string    `db:"id"`
	Actor     string    `db:"actor"`
	Action    string    `db:"action"`
	Entity    string    `db:"entity"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}
