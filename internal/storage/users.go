package storage

type Role string

const (
	RoleMaster     Role = "master"
	RoleOperator   Role = "operator"
	RoleApprentice Role = "apprentice"
)

// Actor is the operator or session on whose behalf an operation runs.
type Actor struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

type User struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Role     Role   `json:"role" db:"role"`
	Earnings int64  `json:"earnings" db:"earnings"`
}

type Car struct {
	ID    int64  `json:"id" db:"id"`
	Make  string `json:"make" db:"make"`
	Model string `json:"model" db:"model"`
	Plate string `json:"plate" db:"plate"`
	Owner string `json:"owner" db:"owner"`
}

func (c Car) Label() string {
	label := c.Make
	if c.Model != "" {
		label += " " + c.Model
	}
	if c.Plate != "" {
		label += " (" + c.Plate + ")"
	}
	return label
}
