package appointments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/carservice-desk/internal/slots"
)

func TestMemoryStore_DuplicateVehicleRejected(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.Insert(ctx, Appointment{CustomerName: "John Smith", VehicleID: "KA01AB1234", Date: day, Slot: slots.Morning})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Insert(ctx, Appointment{CustomerName: "Someone Else", VehicleID: "KA01AB1234", Date: day.AddDate(0, 0, 1), Slot: slots.Evening})
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "John Smith", all[0].CustomerName, "first booking must not be overwritten")
	assert.NotEmpty(t, all[0].ID)
}

func TestMemoryStore_ListAllOrdered(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	next := day.AddDate(0, 0, 1)

	for _, appt := range []Appointment{
		{CustomerName: "C", VehicleID: "CCC333", Date: next, Slot: slots.Morning},
		{CustomerName: "B", VehicleID: "BBB222", Date: day, Slot: slots.Evening},
		{CustomerName: "A", VehicleID: "AAA111", Date: day, Slot: slots.Morning},
	} {
		ok, err := store.Insert(ctx, appt)
		require.NoError(t, err)
		require.True(t, ok)
	}

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	got := []string{all[0].VehicleID, all[1].VehicleID, all[2].VehicleID}
	assert.Equal(t, []string{"AAA111", "BBB222", "CCC333"}, got)
}

func TestMemoryStore_FindAndBooked(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	appt, err := store.FindByVehicle(ctx, "KA01AB1234")
	require.NoError(t, err)
	assert.Nil(t, appt)

	_, err = store.Insert(ctx, Appointment{CustomerName: "John", VehicleID: "KA01AB1234", Date: day, Slot: slots.Afternoon})
	require.NoError(t, err)

	appt, err = store.FindByVehicle(ctx, "KA01AB1234")
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, slots.Afternoon, appt.Slot)

	booked, err := store.BookedSlots(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []slots.Slot{slots.Afternoon}, booked)

	booked, err = store.BookedSlots(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, booked)
}
