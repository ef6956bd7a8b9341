package state

import (
	"net/url"

	"github.com/nhle/prodtask/internal/model"
)

// Storage keys, one JSON document each.
const (
	KeyUsers         = "prodtask_users"
	KeyTasks         = "prodtask_tasks"
	KeyNotifications = "prodtask_notifications"
)

const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

func avatarURL(seed string) string {
	return avatarBaseURL + url.QueryEscape(seed)
}

func seedUsers() []model.User {
	return []model.User{
		{
			ID:       "u1",
			Name:     "管理员 (Admin)",
			Role:     model.RoleAdmin,
			Avatar:   avatarURL("Admin"),
			Password: "admin",
		},
		{
			ID:       "u2",
			Name:     "李明 (员工)",
			Role:     model.RoleEmployee,
			Avatar:   avatarURL("LiMing"),
			Password: "123",
		},
	}
}

func seedTasks(createdAt int64) []model.Task {
	return []model.Task{
		{
			ID:    "t1",
			Title: "组装 402 号单元",
			Description: "完成发动机缸体的最终组装并验证扭矩规格。需要检查以下几点：\n" +
				"1. 螺栓扭矩是否达标\n2. 密封圈是否完好\n3. 表面无划痕",
			Priority:     model.PriorityHigh,
			AssignedToID: "u2",
			CreatedBy:    "u1",
			DueDate:      "2023-11-20",
			Status:       model.StatusInProgress,
			CreatedAt:    createdAt,
			Feedback:     []model.TaskFeedback{},
		},
	}
}
