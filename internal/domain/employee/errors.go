package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrNoSalaryStructure = errors.New("employee has no salary structure assigned")
)
