package client

import (
	"strings"

	"gitlab.com/dirk.krummacker/guard-contacts/pkg/model"
)

// ContactList is the state behind the contact list view. It is a plain value: Reduce returns a new
// state and never modifies the one it was given.
type ContactList struct {
	Contacts []model.Contact
	Filter   string
}

// Action is a transition of the contact list.
type Action interface {
	apply(ContactList) ContactList
}

// Load replaces all contacts, e.g. after fetching them from the service.
type Load struct {
	Contacts []model.Contact
}

// Add puts a newly created contact at the top of the list.
type Add struct {
	Contact model.Contact
}

// Edit replaces the contact with the same id by the updated version.
type Edit struct {
	Contact model.Contact
}

// Remove drops the contact with the id.
type Remove struct {
	Id string
}

// SetFilter sets the name prefix filter. The empty filter shows everything.
type SetFilter struct {
	Filter string
}

// ToggleLetter selects a letter of the alphabet bar, or clears the filter if that letter is
// already selected.
type ToggleLetter struct {
	Letter string
}

// Reduce applies the action to the state.
func Reduce(state ContactList, action Action) ContactList {
	return action.apply(state)
}

func (a Load) apply(s ContactList) ContactList {
	s.Contacts = append([]model.Contact(nil), a.Contacts...)
	return s
}

func (a Add) apply(s ContactList) ContactList {
	contacts := make([]model.Contact, 0, len(s.Contacts)+1)
	contacts = append(contacts, a.Contact)
	s.Contacts = append(contacts, s.Contacts...)
	return s
}

func (a Edit) apply(s ContactList) ContactList {
	contacts := make([]model.Contact, len(s.Contacts))
	for i, c := range s.Contacts {
		if c.Id == a.Contact.Id {
			c = a.Contact
		}
		contacts[i] = c
	}
	s.Contacts = contacts
	return s
}

func (a Remove) apply(s ContactList) ContactList {
	contacts := make([]model.Contact, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		if c.Id != a.Id {
			contacts = append(contacts, c)
		}
	}
	s.Contacts = contacts
	return s
}

func (a SetFilter) apply(s ContactList) ContactList {
	s.Filter = a.Filter
	return s
}

func (a ToggleLetter) apply(s ContactList) ContactList {
	letter := strings.ToLower(a.Letter)
	if strings.ToLower(s.Filter) == letter {
		s.Filter = ""
	} else {
		s.Filter = letter
	}
	return s
}

// Visible returns the contacts that pass the filter, in list order. It is computed on every call.
func Visible(s ContactList) []model.Contact {
	if s.Filter == "" {
		return s.Contacts
	}
	prefix := strings.ToLower(s.Filter)
	visible := make([]model.Contact, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		if strings.HasPrefix(strings.ToLower(c.Name), prefix) {
			visible = append(visible, c)
		}
	}
	return visible
}
