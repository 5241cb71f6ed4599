package format

import (
	"strings"
	"unicode/utf16"
)

// MaxMessageLength - ограничение Telegram на длину текста сообщения (в UTF-16 единицах)
const MaxMessageLength = 4096

const blockSeparator = "\n\n"

// MessageLength считает длину текста так же, как Telegram
func MessageLength(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// Paginate склеивает блоки через пустую строку в сообщения не длиннее MaxMessageLength.
// Блок переносится в следующее сообщение целиком; слишком длинный блок режется по строкам.
func Paginate(blocks ...string) []string {
	var (
		pages []string
		sb    strings.Builder
		size  int
	)
	sepLen := MessageLength(blockSeparator)

	for _, block := range blocks {
		for _, part := range splitLines(block, MaxMessageLength) {
			n := MessageLength(part)
			if size > 0 && size+sepLen+n > MaxMessageLength {
				pages = append(pages, sb.String())
				sb.Reset()
				size = 0
			}
			if size > 0 {
				sb.WriteString(blockSeparator)
				size += sepLen
			}
			sb.WriteString(part)
			size += n
		}
	}
	if size > 0 {
		pages = append(pages, sb.String())
	}

	return pages
}

func splitLines(block string, limit int) []string {
	if block == "" {
		return nil
	}
	if MessageLength(block) <= limit {
		return []string{block}
	}

	var (
		parts []string
		sb    strings.Builder
		size  int
	)
	for _, line := range strings.Split(block, "\n") {
		n := MessageLength(line)
		if size > 0 && size+1+n > limit {
			parts = append(parts, sb.String())
			sb.Reset()
			size = 0
		}
		if size > 0 {
			sb.WriteByte('\n')
			size++
		}
		sb.WriteString(line)
		size += n
	}
	if size > 0 {
		parts = append(parts, sb.String())
	}

	return parts
}
