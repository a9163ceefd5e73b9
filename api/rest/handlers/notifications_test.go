package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"encoder-pipeline/api/rest/handlers"
	"encoder-pipeline/core/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ConfirmSubscription(ctx context.Context, env *notification.Envelope) error {
	return m.Called(ctx, env).Error(0)
}

func (m *MockNotificationService) ProcessNotification(ctx context.Context, env *notification.Envelope) (*notification.Outcome, error) {
	args := m.Called(ctx, env)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Outcome), args.Error(1)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/elastic-transcoder/endpoint", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestNotificationHandler_InvalidJSON(t *testing.T) {
	svc := new(MockNotificationService)
	h := handlers.NewNotificationHandler(svc, slog.Default())

	w := post(h, "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON")
	svc.AssertNotCalled(t, "ConfirmSubscription", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "ProcessNotification", mock.Anything, mock.Anything)
}

func TestNotificationHandler_SubscriptionConfirmation(t *testing.T) {
	svc := new(MockNotificationService)
	svc.On("ConfirmSubscription", mock.Anything, mock.MatchedBy(func(env *notification.Envelope) bool {
		return env.SubscribeURL == "https://example/confirm"
	})).Return(nil).Once()
	h := handlers.NewNotificationHandler(svc, slog.Default())

	w := post(h, `{"Type":"SubscriptionConfirmation","SubscribeURL":"https://example/confirm","Message":"{\"jobId\":\"job-1\",\"state\":\"COMPLETED\"}"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "ProcessNotification", mock.Anything, mock.Anything)
}

func TestNotificationHandler_Notification(t *testing.T) {
	svc := new(MockNotificationService)
	svc.On("ProcessNotification", mock.Anything, mock.Anything).
		Return(&notification.Outcome{JobID: "job-1", Applied: true}, nil).Once()
	h := handlers.NewNotificationHandler(svc, slog.Default())

	w := post(h, `{"Type":"Notification","Message":"{\"jobId\":\"job-1\",\"state\":\"PROGRESSING\"}"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Done", w.Body.String())
	svc.AssertExpectations(t)
}

func TestNotificationHandler_FaultLogsBody(t *testing.T) {
	svc := new(MockNotificationService)
	svc.On("ProcessNotification", mock.Anything, mock.Anything).
		Return(nil, errors.New("job not found")).Once()
	logger, buf := bufferLogger()
	h := handlers.NewNotificationHandler(svc, logger)

	w := post(h, `{"Type":"Notification","Message":"{\"jobId\":\"missing\",\"state\":\"COMPLETED\"}"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), `"body":`)
	assert.Contains(t, buf.String(), `missing`)
	assert.Contains(t, buf.String(), "job not found")
}

func TestNotificationHandler_PanicIsLoggedAndRethrown(t *testing.T) {
	svc := new(MockNotificationService)
	svc.On("ProcessNotification", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		panic("boom")
	})
	logger, buf := bufferLogger()
	h := handlers.NewNotificationHandler(svc, logger)

	require.PanicsWithValue(t, "boom", func() {
		post(h, `{"Type":"Notification","Message":"{}"}`)
	})
	assert.Contains(t, buf.String(), "panic while handling notification")
	assert.Contains(t, buf.String(), `"body":`)
}

func TestNotificationHandler_UnsubscribeConfirmation(t *testing.T) {
	svc := new(MockNotificationService)
	h := handlers.NewNotificationHandler(svc, slog.Default())

	w := post(h, `{"Type":"UnsubscribeConfirmation","Message":"You have chosen to deactivate"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertNotCalled(t, "ProcessNotification", mock.Anything, mock.Anything)
}
