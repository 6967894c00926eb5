package models

import "time"

// Validate checks if the category meets all validation requirements
func (c *Category) Validate() error {
	return validateStruct(c)
}

// BeforeCreate sets up any necessary fields before creation
func (c *Category) BeforeCreate() {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}
