package models

import "time"

// Validate checks if the author meets all validation requirements
func (a *Author) Validate() error {
	return validateStruct(a)
}

// BeforeCreate sets up any necessary fields before creation
func (a *Author) BeforeCreate() {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
}
