package dto

import "github.com/egonyu/tesotunes-moderation/internal/domain/model"

type DashboardResponse struct {
	Stats  model.DashboardStats `json:"stats"`
	Recent []model.ReviewRecord `json:"recent"`
}
