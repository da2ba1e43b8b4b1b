// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

// ID is an opaque identifier assigned by the tracker. It decodes from a
// JSON string or number and is always handled as text.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return goerr.Wrap(err, "id must be a string or a number", goerr.V("raw", string(data)))
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as text.
func (id ID) String() string {
	return string(id)
}

// Identity is the logged-in user.
type Identity struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Workspace is a named grouping the user belongs to.
type Workspace struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Member is a user belonging to a workspace.
type Member struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Task is a task as returned by the tracker after creation.
type Task struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Assignee    ID     `json:"assignee,omitempty"`
	WorkspaceID ID     `json:"workspace_id,omitempty"`
}

// TaskDraft holds the fields submitted to create a task.
type TaskDraft struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Assignee ID     `json:"assignee,omitempty"`
}
