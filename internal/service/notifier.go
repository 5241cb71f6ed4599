package service

import (
	"context"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

// Notifier отправляет уведомления об изменениях записей.
// Ошибки доставки не влияют на результат операции.
type Notifier interface {
	SlotBooked(ctx context.Context, event *model.Event, slot *model.Slot)
	SlotCancelled(ctx context.Context, event *model.Event, slot *model.Slot)
	SlotsVoided(ctx context.Context, event *model.Event, slots []*model.Slot)
}

// NopNotifier ничего не отправляет
type NopNotifier struct{}

func (NopNotifier) SlotBooked(context.Context, *model.Event, *model.Slot) {}
func (NopNotifier) SlotCancelled(context.Context, *model.Event, *model.Slot) {}
func (NopNotifier) SlotsVoided(context.Context, *model.Event, []*model.Slot) {}
