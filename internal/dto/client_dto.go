package dto

// ─── Clients ─────────────────────────────────────────────────────────────────

type CreateClientRequest struct {
	Name         string  `json:"name"          validate:"required,min=2"`
	Tier         string  `json:"tier"          validate:"required,oneof=STANDARD PREMIUM VIP"`
	TerritoryID  *string `json:"territory_id"  validate:"omitempty,uuid"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
}

type UpdateClientRequest struct {
	Name         *string `json:"name"          validate:"omitempty,min=2"`
	Tier         *string `json:"tier"          validate:"omitempty,oneof=STANDARD PREMIUM VIP"`
	TerritoryID  *string `json:"territory_id"  validate:"omitempty,uuid"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
}

type ClientResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Tier         string  `json:"tier"`
	TerritoryID  *string `json:"territory_id,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	Active       bool    `json:"active"`
	CreatedAt    string  `json:"created_at"`
}

// ─── Projects ────────────────────────────────────────────────────────────────

type CreateProjectRequest struct {
	ClientID    string  `json:"client_id"    validate:"required,uuid"`
	Name        string  `json:"name"         validate:"required,min=2"`
	TerritoryID *string `json:"territory_id" validate:"omitempty,uuid"`
}

type ProjectResponse struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"client_id"`
	ClientName  string  `json:"client_name,omitempty"`
	Name        string  `json:"name"`
	TerritoryID *string `json:"territory_id,omitempty"`
	Active      bool    `json:"active"`
	CreatedAt   string  `json:"created_at"`
}
