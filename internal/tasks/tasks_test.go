package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bryceheller922-ship-it/Archaleon/internal/config"
	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/outbox"
	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
	"github.com/bryceheller922-ship-it/Archaleon/internal/tasks"
)

// --- Mocks ---

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Create(ctx context.Context, collection, id string, doc any) error {
	args := m.Called(ctx, collection, id, doc)
	return args.Error(0)
}

func (m *MockRemote) Read(ctx context.Context, collection, id string, out any) error {
	args := m.Called(ctx, collection, id, out)
	return args.Error(0)
}

func (m *MockRemote) List(ctx context.Context, collection, orderBy string, out any) error {
	args := m.Called(ctx, collection, orderBy, out)
	return args.Error(0)
}

func (m *MockRemote) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	args := m.Called(ctx, collection, id, fields)
	return args.Error(0)
}

func (m *MockRemote) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

// --- Tests ---

func TestHandleRemoteWriteTask_Success(t *testing.T) {
	mockRemote := new(MockRemote)
	p := tasks.NewTaskProcessor(&config.Config{}, nil, mockRemote)

	listing := &models.Listing{ID: "A1B2C3D4E5", CompanyName: "Acme Metals"}
	op, err := outbox.CreateOp(remote.CollectionListings, listing.ID, listing)
	require.NoError(t, err)
	payload, err := json.Marshal(op)
	require.NoError(t, err)
	task := asynq.NewTask(tasks.TypeRemoteWrite, payload)

	mockRemote.On("Create", mock.Anything, remote.CollectionListings, "A1B2C3D4E5", listing).Return(nil)

	assert.NoError(t, p.HandleRemoteWriteTask(context.Background(), task))
	mockRemote.AssertExpectations(t)
}

func TestHandleRemoteWriteTask_RemoteFailureRetries(t *testing.T) {
	mockRemote := new(MockRemote)
	p := tasks.NewTaskProcessor(&config.Config{}, nil, mockRemote)

	op := outbox.DeleteOp(remote.CollectionListings, "A1B2C3D4E5")
	payload, _ := json.Marshal(op)
	task := asynq.NewTask(tasks.TypeRemoteWrite, payload)

	mockRemote.On("Delete", mock.Anything, remote.CollectionListings, "A1B2C3D4E5").Return(errors.New("remote down"))

	err := p.HandleRemoteWriteTask(context.Background(), task)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry), "remote failures should be retried")
}

func TestHandleRemoteWriteTask_BadPayloadDropped(t *testing.T) {
	p := tasks.NewTaskProcessor(&config.Config{}, nil, new(MockRemote))

	task := asynq.NewTask(tasks.TypeRemoteWrite, []byte("{not json"))
	err := p.HandleRemoteWriteTask(context.Background(), task)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "malformed payloads should not be retried")
}

func TestHandleEmailDeliveryTask(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	cfg := &config.Config{SmtpFromAddress: "noreply@archaleon.example.com"}
	p := tasks.NewTaskProcessor(cfg, mockEmailSender, nil)

	payload, _ := json.Marshal(tasks.EmailTaskPayload{
		To:      "owner@acme.com",
		Subject: "Reset your Archaleon password",
		Body:    "<p>Your reset code is: <b>abc</b></p>",
	})
	task := asynq.NewTask(tasks.TypeEmailDelivery, payload)

	mockEmailSender.On("Send",
		mock.Anything,
		[]string{"owner@acme.com"},
		"Reset your Archaleon password",
		mock.MatchedBy(func(raw []byte) bool {
			msg := string(raw)
			assert.Contains(t, msg, "To: owner@acme.com")
			assert.Contains(t, msg, fmt.Sprintf("From: %s", cfg.SmtpFromAddress))
			assert.Contains(t, msg, "reset code")
			return true
		}),
	).Return(nil)

	assert.NoError(t, p.HandleEmailDeliveryTask(context.Background(), task))
	mockEmailSender.AssertExpectations(t)
}
