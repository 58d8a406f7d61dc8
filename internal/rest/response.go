package rest

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type listResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}
