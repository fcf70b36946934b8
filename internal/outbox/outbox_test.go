package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) Create(ctx context.Context, collection, id string, doc any) error {
	args := m.Called(ctx, collection, id, doc)
	return args.Error(0)
}

func (m *mockRemote) Read(ctx context.Context, collection, id string, out any) error {
	args := m.Called(ctx, collection, id, out)
	return args.Error(0)
}

func (m *mockRemote) List(ctx context.Context, collection, orderBy string, out any) error {
	args := m.Called(ctx, collection, orderBy, out)
	return args.Error(0)
}

func (m *mockRemote) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	args := m.Called(ctx, collection, id, fields)
	return args.Error(0)
}

func (m *mockRemote) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func TestOpRoundTrip(t *testing.T) {
	listing := &models.Listing{ID: "A1B2C3D4E5", CompanyName: "Acme Metals", AskingPrice: 2500000}
	op, err := CreateOp(remote.CollectionListings, listing.ID, listing)
	require.NoError(t, err)

	raw, err := json.Marshal(op)
	require.NoError(t, err)

	var revived Op
	require.NoError(t, json.Unmarshal(raw, &revived))
	assert.Equal(t, KindCreate, revived.Kind)
	assert.Equal(t, remote.CollectionListings, revived.Collection)
	assert.Equal(t, "A1B2C3D4E5", revived.ID)

	doc, err := decodeDoc(revived.Collection, revived.Doc)
	require.NoError(t, err)
	assert.Equal(t, listing, doc)
}

func TestCreateOpPinsDocumentState(t *testing.T) {
	listing := &models.Listing{ID: "A1B2C3D4E5", Views: 1}
	op, err := CreateOp(remote.CollectionListings, listing.ID, listing)
	require.NoError(t, err)

	listing.Views = 99

	doc, err := decodeDoc(op.Collection, op.Doc)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.(*models.Listing).Views)
}

func TestApplyDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		client := &mockRemote{}
		listing := &models.Listing{ID: "A1B2C3D4E5"}
		op, err := CreateOp(remote.CollectionListings, listing.ID, listing)
		require.NoError(t, err)

		client.On("Create", ctx, remote.CollectionListings, "A1B2C3D4E5", listing).Return(nil)
		assert.NoError(t, Apply(ctx, client, op))
		client.AssertExpectations(t)
	})

	t.Run("update", func(t *testing.T) {
		client := &mockRemote{}
		fields := map[string]any{"views": 3}
		op := UpdateOp(remote.CollectionListings, "A1B2C3D4E5", fields)

		client.On("Update", ctx, remote.CollectionListings, "A1B2C3D4E5", fields).Return(nil)
		assert.NoError(t, Apply(ctx, client, op))
		client.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		client := &mockRemote{}
		op := DeleteOp(remote.CollectionInquiries, "A1B2C3D4E5")

		client.On("Delete", ctx, remote.CollectionInquiries, "A1B2C3D4E5").Return(nil)
		assert.NoError(t, Apply(ctx, client, op))
		client.AssertExpectations(t)
	})

	t.Run("unknown kind", func(t *testing.T) {
		client := &mockRemote{}
		assert.Error(t, Apply(ctx, client, Op{Kind: Kind("upsert")}))
	})

	t.Run("unknown collection", func(t *testing.T) {
		client := &mockRemote{}
		op := Op{Collection: "widgets", Kind: KindCreate, ID: "X", Doc: json.RawMessage(`{}`)}
		assert.Error(t, Apply(ctx, client, op))
	})
}

func TestInlineAppliesAndSwallowsFailures(t *testing.T) {
	client := &mockRemote{}
	client.On("Delete", mock.Anything, remote.CollectionListings, "A1B2C3D4E5").Return(errors.New("remote down"))

	inline := NewInline(client)
	inline.Enqueue(context.Background(), DeleteOp(remote.CollectionListings, "A1B2C3D4E5"))

	done := make(chan struct{})
	go func() {
		inline.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("inline outbox did not drain")
	}
	client.AssertExpectations(t)
}
