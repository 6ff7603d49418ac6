package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/stretchr/testify/require"
)

func TestDecodeEquipmentList(t *testing.T) {
	t.Parallel()
	want := []model.Equipment{
		{ID: "1", Name: "Oscilloscope", Category: "Electronics", Quantity: 3, Available: true},
		{ID: "2", Name: "3D Printer", Quantity: 0, Available: false},
	}
	tests := []struct {
		name string
		body string
	}{
		{
			name: "envelope",
			body: `{"equipmentList":[{"EquipmentID":1,"Name":"Oscilloscope","Category":"Electronics","Quantity":3},{"EquipmentID":2,"Name":"3D Printer","Quantity":0}]}`,
		},
		{
			name: "bare array",
			body: `[{"id":"1","name":"Oscilloscope","category":"Electronics","quantity":3,"available":true},{"id":2,"name":"3D Printer","quantity":"0","availability":"unavailable"}]`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := model.DecodeEquipmentList([]byte(tt.body))
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestDecodeEquipmentList_Rejects(t *testing.T) {
	t.Parallel()
	for _, body := range []string{
		`{"message":"ok"}`,
		`"nope"`,
		`[{"name":"no id"}]`,
		`[1,2]`,
	} {
		_, err := model.DecodeEquipmentList([]byte(body))
		require.ErrorIs(t, err, errs.ErrUnexpectedPayload, body)
	}

	got, err := model.DecodeEquipmentList([]byte(`null`))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecodeRequestList(t *testing.T) {
	t.Parallel()
	body := `[
		{"requestID":42,"status":"pending","studentName":"Ama Mensah","borrowDate":"2024-12-30T09:00:00Z","collectionDateTime":"2025-01-02T10:00:00Z"},
		{"id":"43","Status":"Approved","user":{"name":"Kofi"},"returnDate":"2025-01-10"}
	]`
	got, err := model.DecodeRequestList([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, model.ID("42"), got[0].ID)
	require.True(t, got[0].Status.Is(model.StatusPending))
	require.Equal(t, "Ama Mensah", got[0].Requester)
	require.Equal(t, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), got[0].CollectionDateTime.UTC())
	require.Nil(t, got[0].ReturnDate)

	require.Equal(t, model.ID("43"), got[1].ID)
	require.Equal(t, "Kofi", got[1].Requester)
	require.NotNil(t, got[1].ReturnDate)
	require.True(t, got[1].Overdue(time.Date(2025, 2, 1, 0, 0, 0, 0, time.Local)))
}

func TestDecodeItemList(t *testing.T) {
	t.Parallel()
	body := `{"items":[{"BorrowedItemID":1,"equipment":{"id":7,"name":"Multimeter"},"quantity":2,"description":"lab 3","serialNumber":null}]}`
	got, err := model.DecodeItemList([]byte(body))
	require.NoError(t, err)
	require.Equal(t, []model.BorrowedItem{{
		ID:            "1",
		EquipmentID:   "7",
		EquipmentName: "Multimeter",
		Quantity:      2,
		Description:   "lab 3",
	}}, got)
}

func TestDecodeLoginResponse(t *testing.T) {
	t.Parallel()
	resp, err := model.DecodeLoginResponse([]byte(`{"token":"t1","user":{"id":5,"name":"Ama","email":"a@ashesi.edu.gh","role":"admin"}}`))
	require.NoError(t, err)
	require.Equal(t, "t1", resp.Token)
	require.Equal(t, model.RoleAdmin, resp.Role)
	require.Equal(t, model.ID("5"), resp.User.ID)

	_, err = model.DecodeLoginResponse([]byte(`{"message":"welcome"}`))
	require.ErrorIs(t, err, errs.ErrMissingToken)
}

func TestApproveRequest_Marshal(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(model.ApproveRequest{
		ReturnDate: "2025-01-01T10:00",
		Items:      []model.ApprovalItem{{BorrowedItemID: "1", Allow: true, SerialNumber: "SN1"}},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"returnDate":"2025-01-01T10:00","items":[{"borrowedItemID":1,"allow":true,"serialNumber":"SN1","description":""}]}`, string(b))

	b, err = json.Marshal(model.RequestedItem{EquipmentID: "a9f", Quantity: 1})
	require.NoError(t, err)
	require.JSONEq(t, `{"equipmentID":"a9f","quantity":1,"description":""}`, string(b))
}

func TestParseRole(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]model.Role{"Admin": model.RoleAdmin, "student": model.RoleStudent, " ADMIN ": model.RoleAdmin} {
		got, ok := model.ParseRole(in)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := model.ParseRole("staff")
	require.False(t, ok)
}
