package borrow_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Astemirdum/fabtrack/config"
	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/Astemirdum/fabtrack/internal/service/api"
	"github.com/Astemirdum/fabtrack/internal/service/borrow"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct {
	method, path, body string
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) all() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func newService(t *testing.T, status int, resp string) (*borrow.Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.calls = append(rec.calls, call{method: r.Method, path: r.URL.Path, body: string(b)})
		rec.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	log := zap.NewNop()
	return borrow.NewService(log, api.NewClient(log, config.Backend{BaseURL: srv.URL, Timeout: time.Second})), rec
}

func TestService_Approve(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, http.StatusOK, `{"message":"approved"}`)

	err := svc.Approve(context.Background(), "42", model.ApproveRequest{
		ReturnDate: "2025-01-01T10:00",
		Items:      []model.ApprovalItem{{BorrowedItemID: "1", Allow: true, SerialNumber: "SN1"}},
	})
	require.NoError(t, err)
	calls := rec.all()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodPut, calls[0].method)
	require.Equal(t, "/api/borrow/approve/42", calls[0].path)
	require.JSONEq(t, `{"returnDate":"2025-01-01T10:00","items":[{"borrowedItemID":1,"allow":true,"serialNumber":"SN1","description":""}]}`, calls[0].body)
}

func TestService_Return(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, http.StatusOK, ``)

	require.NoError(t, svc.Return(context.Background(), "42"))
	require.Equal(t, []call{{method: http.MethodPut, path: "/api/borrow/return/42"}}, rec.all())
}

func TestService_Lists(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, http.StatusOK, `[{"id":42,"status":"Pending"}]`)
	ctx := context.Background()

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.All(ctx)
	require.NoError(t, err)

	calls := rec.all()
	require.Equal(t, "/api/borrow/pending-requests", calls[0].path)
	require.Equal(t, "/api/borrow/all-requests", calls[1].path)
}

func TestService_CreateRequest(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, http.StatusCreated, `{"message":"created"}`)

	err := svc.CreateRequest(context.Background(), model.CreateBorrowRequest{
		Items:              []model.RequestedItem{{EquipmentID: "3", Quantity: 2, Description: "robotics lab"}},
		CollectionDateTime: "2025-01-02T09:30:00Z",
	})
	require.NoError(t, err)
	calls := rec.all()
	require.Equal(t, "/api/borrow/request", calls[0].path)
	require.JSONEq(t, `{"items":[{"equipmentID":3,"quantity":2,"description":"robotics lab"}],"collectionDateTime":"2025-01-02T09:30:00Z"}`, calls[0].body)
}

func TestService_Errors(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, http.StatusUnauthorized, `{"message":"Unauthorized"}`)

	_, err := svc.Items(context.Background(), "42")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, "/api/borrow/42/items", rec.all()[0].path)
}

func TestService_LogsAndReminder(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, http.StatusOK, `{"message":"Reminders sent"}`)
	ctx := context.Background()

	msg, err := svc.SendReminder(ctx)
	require.NoError(t, err)
	require.Equal(t, "Reminders sent", msg)

	raw, err := svc.Logs(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `{"message":"Reminders sent"}`, string(raw))
	calls := rec.all()
	require.Equal(t, "/api/borrow/send-reminder", calls[0].path)
	require.Equal(t, "/api/borrow/logs", calls[1].path)
}
