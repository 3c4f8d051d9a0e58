package colors

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Color struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"color_code"`
	Name      string    `json:"color_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateInput struct {
	Code string `json:"color_code" validate:"required,normalized"`
	Name string `json:"color_name" validate:"required,normalized"`
}

type UpdateInput struct {
	Code *string `json:"color_code,omitempty" validate:"omitempty,normalized"`
	Name *string `json:"color_name,omitempty" validate:"omitempty,normalized"`
}

// DefaultCode derives a color code from its name: "Navy Blue" → "navy-blue".
func DefaultCode(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
