package employee

import "errors"

var (
	ErrInvalidProvider       = errors.New("employee: invalid provider")
	ErrInvalidEmployeeID     = errors.New("employee: invalid employee id")
	ErrInvalidStartDate      = errors.New("employee: invalid start date")
	ErrInvalidStatus         = errors.New("employee: invalid status")
	ErrEmployeeNotFound      = errors.New("employee: not found")
	ErrEmployeeAlreadyExists = errors.New("employee: already exists")
)
