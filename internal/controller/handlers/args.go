package handlers

import (
	"fmt"
	"strconv"
	"strings"
)

// commandArgs возвращает аргументы команды: "/book@bot 10 2" -> ["10", "2"]
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// parseBookArgs разбирает "/book <ID учителя> <номер окна>".
// Номер окна у пользователя начинается с 1, возвращается индекс сетки.
func parseBookArgs(text string) (teacherID int64, index int, err error) {
	args := commandArgs(text)
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}

	teacherID, err = strconv.ParseInt(args[0], 10, 64)
	if err != nil || teacherID <= 0 {
		return 0, 0, fmt.Errorf("invalid teacher id %q", args[0])
	}

	number, err := strconv.Atoi(args[1])
	if err != nil || number < 1 {
		return 0, 0, fmt.Errorf("invalid slot number %q", args[1])
	}

	return teacherID, number - 1, nil
}

// parseCancelArgs разбирает "/cancel <номер записи>"
func parseCancelArgs(text string) (int64, error) {
	args := commandArgs(text)
	if len(args) != 1 {
		return 0, fmt.Errorf("expected 1 argument, got %d", len(args))
	}

	slotID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || slotID <= 0 {
		return 0, fmt.Errorf("invalid slot id %q", args[0])
	}
	return slotID, nil
}

// parseLinkArgs разбирает "/link <ID пользователя> <Telegram ID>";
// "-" вместо Telegram ID отвязывает аккаунт
func parseLinkArgs(text string) (userID int64, telegramID *int64, err error) {
	args := commandArgs(text)
	if len(args) != 2 {
		return 0, nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}

	userID, err = strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, nil, fmt.Errorf("invalid user id %q", args[0])
	}

	if args[1] == "-" {
		return userID, nil, nil
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, fmt.Errorf("invalid telegram id %q", args[1])
	}
	return userID, &id, nil
}
