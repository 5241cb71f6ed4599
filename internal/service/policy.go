package service

import "github.com/Freeeeeet/consultation_scheduler/internal/model"

type Action string

const (
	ActionViewSlots     Action = "slots.view"
	ActionBookSlot      Action = "slots.book"
	ActionCancelSlot    Action = "slots.cancel"
	ActionListEvents    Action = "events.list"
	ActionManageEvents  Action = "events.manage"
	ActionTeacherEvents Action = "events.teacher"
	ActionLinkAccounts  Action = "users.link"
)

// Policy - внешний оракул прав; вызывается явно в начале каждой операции
type Policy interface {
	Allow(actor model.Identity, action Action, schoolID int64) bool
}

// RolePolicy - права по ролям в пределах своей школы
type RolePolicy struct{}

func (RolePolicy) Allow(actor model.Identity, action Action, schoolID int64) bool {
	if !actor.HasSchool() || actor.SchoolID != schoolID {
		return false
	}

	switch action {
	case ActionViewSlots:
		return actor.Role == model.RoleParent || actor.Role == model.RoleAdmin
	case ActionBookSlot, ActionCancelSlot:
		return actor.Role == model.RoleParent
	case ActionListEvents:
		return actor.Role == model.RoleAdmin || actor.Role == model.RoleParent
	case ActionManageEvents, ActionLinkAccounts:
		return actor.Role == model.RoleAdmin
	case ActionTeacherEvents:
		return actor.Role == model.RoleTeacher
	}
	return false
}
