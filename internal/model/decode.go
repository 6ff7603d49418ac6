package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/pkg/errors"
)

// The backend is not consistent about envelopes or key casing
// ({equipmentList:[...]} vs [...], id vs EquipmentID). Everything is decoded
// through object, which looks keys up case-insensitively.
type object map[string]json.RawMessage

func decodeObject(b []byte) (object, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(errs.ErrUnexpectedPayload, err.Error())
	}
	o := make(object, len(raw))
	for k, v := range raw {
		o[strings.ToLower(k)] = v
	}
	return o, nil
}

func (o object) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := o[strings.ToLower(k)]
		if ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func (o object) str(keys ...string) string {
	v, ok := o.raw(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func (o object) num(keys ...string) (int, bool) {
	s := o.str(keys...)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		n = int(f)
	}
	return n, true
}

func (o object) flag(keys ...string) (bool, bool) {
	v, ok := o.raw(keys...)
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, true
	}
	switch strings.ToLower(o.str(keys...)) {
	case "true", "yes", "1", "available", "in-stock", "limited":
		return true, true
	case "false", "no", "0", "unavailable", "out-of-stock":
		return false, true
	}
	return false, false
}

func (o object) when(keys ...string) (time.Time, bool) {
	s := o.str(keys...)
	if s == "" {
		return time.Time{}, false
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (o object) nested(keys ...string) (object, bool) {
	v, ok := o.raw(keys...)
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) {
		return nil, false
	}
	inner, err := decodeObject(v)
	if err != nil {
		return nil, false
	}
	return inner, true
}

func isNull(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTime accepts the date formats seen from the backend and from
// datetime-local inputs. Values without a zone are read as local time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized time %q", s)
}

// decodeList unwraps a bare array or an object holding the array under one of
// the envelope keys.
func decodeList(b []byte, envelopes ...string) ([]json.RawMessage, error) {
	t := bytes.TrimSpace(b)
	if isNull(t) {
		return nil, nil
	}
	switch t[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(t, &list); err != nil {
			return nil, errors.Wrap(errs.ErrUnexpectedPayload, err.Error())
		}
		return list, nil
	case '{':
		o, err := decodeObject(t)
		if err != nil {
			return nil, err
		}
		v, ok := o.raw(envelopes...)
		if !ok {
			return nil, errors.Wrapf(errs.ErrUnexpectedPayload, "no list under %v", envelopes)
		}
		return decodeList(v)
	}
	return nil, errs.ErrUnexpectedPayload
}

func decodeEach[T any](b []byte, one func(object) (T, error), envelopes ...string) ([]T, error) {
	list, err := decodeList(b, envelopes...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(list))
	for i, raw := range list {
		o, err := decodeObject(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		v, err := one(o)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, v)
	}
	return out, nil
}

func DecodeEquipmentList(b []byte) ([]Equipment, error) {
	return decodeEach(b, equipmentFrom, "equipmentList", "equipment", "items", "data")
}

func DecodeEquipment(b []byte) (Equipment, error) {
	o, err := decodeObject(b)
	if err != nil {
		return Equipment{}, err
	}
	if inner, ok := o.nested("equipment", "data"); ok {
		o = inner
	}
	return equipmentFrom(o)
}

func equipmentFrom(o object) (Equipment, error) {
	e := Equipment{
		ID:       ID(o.str("id", "equipmentID", "equipment_id")),
		Name:     o.str("name", "equipmentName", "equipment_name"),
		Category: o.str("category"),
	}
	if e.ID == "" || e.Name == "" {
		return Equipment{}, errors.Wrap(errs.ErrUnexpectedPayload, "equipment without id or name")
	}
	qty, hasQty := o.num("quantity", "availableQuantity", "available_quantity")
	e.Quantity = qty
	if avail, ok := o.flag("available", "isAvailable", "availability"); ok {
		e.Available = avail
	} else {
		e.Available = !hasQty || qty > 0
	}
	return e, nil
}

func DecodeRequestList(b []byte) ([]BorrowRequest, error) {
	return decodeEach(b, requestFrom, "requests", "borrowRequests", "pendingRequests", "data")
}

func requestFrom(o object) (BorrowRequest, error) {
	r := BorrowRequest{
		ID:     ID(o.str("id", "requestID", "borrowRequestID", "request_id")),
		Status: Status(o.str("status")),
	}
	if r.ID == "" {
		return BorrowRequest{}, errors.Wrap(errs.ErrUnexpectedPayload, "request without id")
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	r.Requester = o.str("requester", "studentName", "userName", "name", "email")
	if r.Requester == "" {
		if u, ok := o.nested("user", "student"); ok {
			r.Requester = u.str("name", "email")
		}
	}
	r.BorrowDate, _ = o.when("borrowDate", "createdAt", "requestDate")
	r.CollectionDateTime, _ = o.when("collectionDateTime", "collectionDate")
	if t, ok := o.when("returnDate", "dueDate"); ok {
		r.ReturnDate = &t
	}
	return r, nil
}

func DecodeItemList(b []byte) ([]BorrowedItem, error) {
	return decodeEach(b, itemFrom, "items", "borrowedItems", "data")
}

func itemFrom(o object) (BorrowedItem, error) {
	it := BorrowedItem{
		ID:            ID(o.str("borrowedItemID", "id", "borrowed_item_id")),
		EquipmentID:   ID(o.str("equipmentID", "equipment_id")),
		EquipmentName: o.str("equipmentName", "name", "equipment_name"),
		Description:   o.str("description"),
		SerialNumber:  o.str("serialNumber", "serial_number", "serial"),
	}
	if it.ID == "" {
		return BorrowedItem{}, errors.Wrap(errs.ErrUnexpectedPayload, "item without id")
	}
	if eq, ok := o.nested("equipment"); ok {
		if it.EquipmentID == "" {
			it.EquipmentID = ID(eq.str("id", "equipmentID"))
		}
		if it.EquipmentName == "" {
			it.EquipmentName = eq.str("name")
		}
	}
	it.Quantity, _ = o.num("quantity")
	it.Allow, _ = o.flag("allow", "approved")
	return it, nil
}

func DecodeUser(b []byte) (User, error) {
	o, err := decodeObject(b)
	if err != nil {
		return User{}, err
	}
	if inner, ok := o.nested("user", "data"); ok {
		o = inner
	}
	return userFrom(o), nil
}

func userFrom(o object) User {
	u := User{
		ID:    ID(o.str("id", "userID", "user_id")),
		Name:  o.str("name", "fullName"),
		Email: o.str("email"),
		Major: o.str("major"),
	}
	u.Role, _ = ParseRole(o.str("role"))
	u.YearGroup, _ = o.num("yearGroup", "year_group")
	return u
}

func DecodeLoginResponse(b []byte) (LoginResponse, error) {
	o, err := decodeObject(b)
	if err != nil {
		return LoginResponse{}, err
	}
	resp := LoginResponse{Token: o.str("token", "accessToken", "access_token")}
	if resp.Token == "" {
		return LoginResponse{}, errs.ErrMissingToken
	}
	resp.Role, _ = ParseRole(o.str("role"))
	if inner, ok := o.nested("user"); ok {
		u := userFrom(inner)
		resp.User = &u
		if resp.Role == "" {
			resp.Role = u.Role
		}
	}
	return resp, nil
}
