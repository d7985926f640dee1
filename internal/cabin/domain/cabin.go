package domain

import (
	"strings"
	"time"
)

// OwnerID is the authenticated user reference a cabin is bound to. Identity
// values cross a serialization boundary (token claim vs stored column), so
// equality is always decided on the trimmed string form.
type OwnerID string

func (id OwnerID) Equals(other OwnerID) bool {
	return strings.TrimSpace(string(id)) == strings.TrimSpace(string(other))
}

type Cabin struct {
	ID                    int64
	Owner                 OwnerID
	Name                  string
	Slug                  string
	Address               string
	PostalCode            string
	City                  string
	Phone                 string
	Email                 string
	ContactPersonName     string
	ContactPersonEmployer string
	IsMember              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ListFilter fields combine with AND semantics; nil means "not filtered".
type ListFilter struct {
	City     string
	IsMember *bool
	OwnerID  OwnerID
}

type Page struct {
	Limit int
	Page  int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type CabinPage struct {
	Items []Cabin
	Total int64
	Page  int
	Limit int
}
