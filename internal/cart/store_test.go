package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLine(optionID int64, quantity, stockCap int) domain.CartLine {
	return domain.CartLine{
		ProductID:   1,
		OptionID:    optionID,
		ProductName: "Linen Shirt",
		Color:       "White",
		Size:        "M",
		UnitPrice:   49.90,
		Quantity:    quantity,
		StockCap:    stockCap,
	}
}

func TestLoad_MissingKey_EmptyCart(t *testing.T) {
	sut := NewStore(NewMemoryStorage())

	require.NoError(t, sut.Load(context.Background()))
	assert.Empty(t, sut.Lines())
}

func TestLoad_MalformedDocument_EmptyCart(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Write(context.Background(), KeyCartItems, []byte("{broken")))

	sut := NewStore(storage)
	require.NoError(t, sut.Load(context.Background()))
	assert.Empty(t, sut.Lines())
}

func TestLoad_DropsBadEntryKeepsGoodOne(t *testing.T) {
	storage := NewMemoryStorage()
	doc := `[
		{"productId":1,"productOptionId":10,"productName":"Tee","unitPrice":29.9,"quantity":2,"stockCap":5},
		{"productId":2,"productName":"missing option id","quantity":1}
	]`
	require.NoError(t, storage.Write(context.Background(), KeyCartItems, []byte(doc)))

	sut := NewStore(storage)
	require.NoError(t, sut.Load(context.Background()))

	lines := sut.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(10), lines[0].OptionID)
}

func TestAddOrMerge_NewLine(t *testing.T) {
	sut := NewStore(NewMemoryStorage())

	capped, err := sut.AddOrMerge(context.Background(), testLine(10, 2, 5))
	require.NoError(t, err)
	assert.False(t, capped)

	lines := sut.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "1-10", lines[0].LineID)
}

func TestAddOrMerge_NewLineOverStock_ClampsAndCaps(t *testing.T) {
	sut := NewStore(NewMemoryStorage())

	capped, err := sut.AddOrMerge(context.Background(), testLine(10, 100, 4))
	require.NoError(t, err)
	assert.True(t, capped)

	lines := sut.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestAddOrMerge_MergesAtCap(t *testing.T) {
	sut := NewStore(NewMemoryStorage())
	_, err := sut.AddOrMerge(context.Background(), testLine(10, 3, 4))
	require.NoError(t, err)

	// 3 + 2 exceeds the cap of 4: quantity lands on 4 with the capped signal.
	capped, err := sut.AddOrMerge(context.Background(), testLine(10, 2, 4))
	require.NoError(t, err)
	assert.True(t, capped)

	lines := sut.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestAddOrMerge_AlreadyAtCap_StillCapped(t *testing.T) {
	sut := NewStore(NewMemoryStorage())
	_, err := sut.AddOrMerge(context.Background(), testLine(10, 4, 4))
	require.NoError(t, err)

	capped, err := sut.AddOrMerge(context.Background(), testLine(10, 2, 4))
	require.NoError(t, err)
	assert.True(t, capped)
	assert.Equal(t, 4, sut.Lines()[0].Quantity)
}

func TestAddOrMerge_UnboundedNeverCaps(t *testing.T) {
	sut := NewStore(NewMemoryStorage())
	_, err := sut.AddOrMerge(context.Background(), testLine(10, 40, 0))
	require.NoError(t, err)

	capped, err := sut.AddOrMerge(context.Background(), testLine(10, 60, 0))
	require.NoError(t, err)
	assert.False(t, capped)
	assert.Equal(t, 100, sut.Lines()[0].Quantity)
}

func TestAddOrMerge_CandidateMetadataWins(t *testing.T) {
	sut := NewStore(NewMemoryStorage())
	stale := testLine(10, 1, 5)
	stale.UnitPrice = 49.90
	stale.DiscountPercent = 0
	_, err := sut.AddOrMerge(context.Background(), stale)
	require.NoError(t, err)

	fresh := testLine(10, 1, 5)
	fresh.UnitPrice = 39.90
	fresh.DiscountPercent = 20
	fresh.ImageURL = "/img/new.jpg"
	_, err = sut.AddOrMerge(context.Background(), fresh)
	require.NoError(t, err)

	line := sut.Lines()[0]
	assert.InDelta(t, 39.90, line.UnitPrice, 1e-9)
	assert.Equal(t, 20, line.DiscountPercent)
	assert.Equal(t, "/img/new.jpg", line.ImageURL)
	assert.Equal(t, 2, line.Quantity)
}

func TestSetQuantity_Clamps(t *testing.T) {
	sut := NewStore(NewMemoryStorage())
	_, err := sut.AddOrMerge(context.Background(), testLine(10, 2, 6))
	require.NoError(t, err)
	lineID := sut.Lines()[0].LineID

	require.NoError(t, sut.SetQuantity(context.Background(), lineID, 0))
	assert.Equal(t, 1, sut.Lines()[0].Quantity, "zero floors to one")

	require.NoError(t, sut.SetQuantity(context.Background(), lineID, 16))
	assert.Equal(t, 6, sut.Lines()[0].Quantity, "clamped to stock cap")
}

func TestSetQuantity_UnknownLine(t *testing.T) {
	sut := NewStore(NewMemoryStorage())
	err := sut.SetQuantity(context.Background(), "9-99", 2)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestRemove(t *testing.T) {
	sut := NewStore(NewMemoryStorage())
	_, err := sut.AddOrMerge(context.Background(), testLine(10, 1, 5))
	require.NoError(t, err)
	_, err = sut.AddOrMerge(context.Background(), testLine(11, 1, 5))
	require.NoError(t, err)

	require.NoError(t, sut.Remove(context.Background(), "1-10"))

	lines := sut.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(11), lines[0].OptionID)

	assert.ErrorIs(t, sut.Remove(context.Background(), "1-10"), ErrLineNotFound)
}

func TestClear_PersistsEmptyCart(t *testing.T) {
	storage := NewMemoryStorage()
	sut := NewStore(storage)
	_, err := sut.AddOrMerge(context.Background(), testLine(10, 2, 5))
	require.NoError(t, err)

	require.NoError(t, sut.Clear(context.Background()))
	assert.Empty(t, sut.Lines())

	data, err := storage.Read(context.Background(), KeyCartItems)
	require.NoError(t, err)
	var persisted []domain.CartLine
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Empty(t, persisted)
}

func TestSubscribe_NotifiedOnEveryMutation(t *testing.T) {
	sut := NewStore(NewMemoryStorage())

	notified := 0
	cancel := sut.Subscribe(func() { notified++ })

	_, err := sut.AddOrMerge(context.Background(), testLine(10, 1, 5))
	require.NoError(t, err)
	require.NoError(t, sut.SetQuantity(context.Background(), "1-10", 3))
	require.NoError(t, sut.Remove(context.Background(), "1-10"))
	require.NoError(t, sut.Clear(context.Background()))
	assert.Equal(t, 4, notified)

	cancel()
	require.NoError(t, sut.Clear(context.Background()))
	assert.Equal(t, 4, notified, "cancelled subscriber stays silent")
}

func TestMutation_PersistsImmediately(t *testing.T) {
	storage := NewMemoryStorage()
	sut := NewStore(storage)

	_, err := sut.AddOrMerge(context.Background(), testLine(10, 2, 5))
	require.NoError(t, err)

	// A second store reading the same storage sees the write at once.
	other := NewStore(storage)
	require.NoError(t, other.Load(context.Background()))
	require.Len(t, other.Lines(), 1)
	assert.Equal(t, 2, other.Lines()[0].Quantity)
}

type failingStorage struct {
	MemoryStorage
	writeErr error
}

func (f *failingStorage) Write(ctx context.Context, key string, value []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryStorage.Write(ctx, key, value)
}

func TestAddOrMerge_StorageWriteError(t *testing.T) {
	storage := &failingStorage{writeErr: errors.New("disk full")}
	storage.data = map[string][]byte{}
	sut := NewStore(storage)

	notified := false
	sut.Subscribe(func() { notified = true })

	_, err := sut.AddOrMerge(context.Background(), testLine(10, 1, 5))
	require.ErrorContains(t, err, "disk full")
	assert.False(t, notified, "no notification without a persist")
}
