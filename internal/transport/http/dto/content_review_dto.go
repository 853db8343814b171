package dto

type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
