package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookSlotData_RoundTrip(t *testing.T) {
	data := BookSlotData{EventID: 100, TeacherID: 10, Index: 3}
	assert.Equal(t, "book_slot:100:10:3", data.String())

	parsed, err := ParseBookSlot(data.String())
	require.NoError(t, err)
	assert.Equal(t, data, parsed)
}

func TestParseBookSlot_Invalid(t *testing.T) {
	for _, data := range []string{"book_slot:100:10", "cancel_slot:1", "book_slot:a:10:1", "book_slot:100:10:x"} {
		_, err := ParseBookSlot(data)
		assert.Error(t, err, data)
	}
}

func TestParseCancelSlot(t *testing.T) {
	slotID, err := ParseCancelSlot(CancelSlotData(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), slotID)

	_, err = ParseCancelSlot("book_slot:1:2:3")
	assert.Error(t, err)
}
