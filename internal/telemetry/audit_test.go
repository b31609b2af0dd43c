package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"study-cache/internal/mocks"
	"study-cache/internal/telemetry"
)

func TestAuditEmitterPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.study_cache", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok &&
			envelope.EventType == "audit_log" &&
			envelope.Service == "study-cache" &&
			envelope.Environment == "test" &&
			envelope.RequestID == "req-1" &&
			envelope.Payload.Level == "INFO" &&
			envelope.Payload.Text == "Group message sent"
	})).Return(nil)

	emitter := telemetry.NewAuditEmitter(publisher, "audit.study_cache", "study-cache", "test")
	emitter.Emit(context.Background(), "INFO", "Group message sent", "req-1", nil)

	publisher.AssertExpectations(t)
}

func TestAuditEmitterCarriesUserID(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.study_cache", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok && envelope.UserID != nil && *envelope.UserID == "u1"
	})).Return(nil)

	userID := "u1"
	emitter := telemetry.NewAuditEmitter(publisher, "audit.study_cache", "study-cache", "test")
	emitter.Emit(context.Background(), "INFO", "Session stored", "req-1", &userID)

	publisher.AssertExpectations(t)
}

func TestAuditEmitterToleratesPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("amqp down"))

	emitter := telemetry.NewAuditEmitter(publisher, "audit.study_cache", "study-cache", "test")
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "ERROR", "internal error", "req-1", nil)
	})
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "ignored", "req-1", nil)
	})
}
