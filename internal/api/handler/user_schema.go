package handler

// --- Request types ---

// updateUserRequest carries a partial profile edit. Absent fields are left
// unchanged; which of the present fields actually apply is decided by the
// authorization tables, not here.
type updateUserRequest struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"    validate:"omitempty,email"`
	Name       *string `json:"name"`
	Telephone  *string `json:"telephone"`
	Profile    *string `json:"profile"  validate:"omitempty,oneof=Public Private"`
	Occupation *string `json:"occupation"`
	Workplace  *string `json:"workplace"`
	Address    *string `json:"address"`
	PostalCode *string `json:"postal_code"`
	TaxID      *string `json:"tax_id"`
	Photo      *string `json:"photo"`
}

// fields flattens the present attributes into the name/value form the
// service layer filters and persists.
func (r *updateUserRequest) fields() map[string]string {
	out := make(map[string]string)
	put := func(name string, v *string) {
		if v != nil {
			out[name] = *v
		}
	}
	put("username", r.Username)
	put("email", r.Email)
	put("name", r.Name)
	put("telephone", r.Telephone)
	put("profile", r.Profile)
	put("occupation", r.Occupation)
	put("workplace", r.Workplace)
	put("address", r.Address)
	put("postal_code", r.PostalCode)
	put("tax_id", r.TaxID)
	put("photo", r.Photo)
	return out
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN BACKOFFICE PARTNER ENDUSER"`
}

// --- Response types ---

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type roleResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
