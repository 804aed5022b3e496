package model

import "time"

// CardStatus is the workflow state of a card.
type CardStatus string

const (
	StatusTodo       CardStatus = "todo"
	StatusInProgress CardStatus = "inprogress"
	StatusDone       CardStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s CardStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Card is a task on the shared board. It lives in the `cards` collection;
// ID is the hex form of the document's ObjectID.
type Card struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      CardStatus `json:"status"`
	CreatedBy   uint64     `json:"createdBy"`
	Archived    bool       `json:"archived"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Snapshot captures the audited fields of the card.
func (c Card) Snapshot() *Snapshot {
	title, desc, status := c.Title, c.Description, c.Status
	return &Snapshot{Title: &title, Description: &desc, Status: &status}
}

// CardPatch lists the fields of a partial update. Nil fields are left
// untouched.
type CardPatch struct {
	Title       *string
	Description *string
	Status      *CardStatus
}

// Apply returns a copy of c with the patch fields applied.
func (p CardPatch) Apply(c Card) Card {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c
}

// Comment is a message attached to a card. Only its author may change or
// remove it.
type Comment struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	Body      string    `json:"body"`
	AuthorID  uint64    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
