package handlers

import (
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/consultation_scheduler/internal/service"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService    *service.UserService
	bookingService *service.BookingService
	eventService   *service.EventService
	loc            *time.Location
	logger         *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	bookingService *service.BookingService,
	eventService *service.EventService,
	loc *time.Location,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:    userService,
		bookingService: bookingService,
		eventService:   eventService,
		loc:            loc,
		logger:         logger,
	}
}
