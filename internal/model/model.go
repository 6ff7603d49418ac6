package model

import (
	"strconv"
	"strings"
	"time"
)

// ID is a backend identifier. The backend uses numeric ids on some tables and
// strings on others, so it is kept as text and written back in its original form.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte(`null`), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return []byte(strconv.Quote(string(id))), nil
}

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		*id = ID(unq)
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return err
	}
	*id = ID(s)
	return nil
}

type Role string

const (
	RoleStudent Role = "Student"
	RoleAdmin   Role = "Admin"
)

// ParseRole matches a role claim case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrator":
		return RoleAdmin, true
	case "student":
		return RoleStudent, true
	}
	return "", false
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Major     string `json:"major,omitempty"`
	YearGroup int    `json:"yearGroup,omitempty"`
}

type Equipment struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	StatusReturned Status = "Returned"
)

// Is compares statuses the way the backend spells them: case-insensitively.
func (s Status) Is(other Status) bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(other))
}

type BorrowRequest struct {
	ID                 ID         `json:"id"`
	Requester          string     `json:"requester"`
	Status             Status     `json:"status"`
	BorrowDate         time.Time  `json:"borrowDate"`
	CollectionDateTime time.Time  `json:"collectionDateTime"`
	ReturnDate         *time.Time `json:"returnDate,omitempty"`
}

// Overdue reports an approved request whose return date has passed.
func (r BorrowRequest) Overdue(now time.Time) bool {
	return r.Status.Is(StatusApproved) && r.ReturnDate != nil && r.ReturnDate.Before(now)
}

type BorrowedItem struct {
	ID            ID     `json:"borrowedItemID"`
	EquipmentID   ID     `json:"equipmentID"`
	EquipmentName string `json:"equipmentName"`
	Quantity      int    `json:"quantity"`
	Description   string `json:"description"`
	SerialNumber  string `json:"serialNumber"`
	Allow         bool   `json:"allow"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type LoginResponse struct {
	Token string
	Role  Role
	User  *User
}

type SignupRequest struct {
	Name      string `json:"name" form:"name" validate:"required"`
	Email     string `json:"email" form:"email" validate:"required,email"`
	Password  string `json:"password" form:"password" validate:"required,min=6"`
	Role      Role   `json:"role" form:"-"`
	Major     string `json:"major" form:"major" validate:"required"`
	YearGroup int    `json:"yearGroup" form:"yearGroup" validate:"required,gte=2000,lte=2100"`
}

type SignupResponse struct {
	Message string `json:"message"`
	UserID  ID     `json:"userID"`
}

type EquipmentRequest struct {
	Name string `json:"name" form:"name" validate:"required"`
}

type RequestedItem struct {
	EquipmentID ID     `json:"equipmentID"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

type CreateBorrowRequest struct {
	Items              []RequestedItem `json:"items"`
	CollectionDateTime string          `json:"collectionDateTime"`
}

type ApprovalItem struct {
	BorrowedItemID ID     `json:"borrowedItemID"`
	Allow          bool   `json:"allow"`
	SerialNumber   string `json:"serialNumber"`
	Description    string `json:"description"`
}

type ApproveRequest struct {
	ReturnDate string         `json:"returnDate"`
	Items      []ApprovalItem `json:"items"`
}
