package testutil

import (
	"sync"

	"greengarden/internal/popup"
	"greengarden/internal/service"
)

// RecordingView records every popup state it is asked to show.
type RecordingView struct {
	mu        sync.Mutex
	LoginURLs []string
	Forms     []*popup.Form
	Successes []service.Task
	ViewURLs  []string
	Errors    []string
}

var _ popup.View = (*RecordingView)(nil)

// ShowLogin implements popup.View.
func (v *RecordingView) ShowLogin(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.LoginURLs = append(v.LoginURLs, url)
}

// ShowAdd implements popup.View.
func (v *RecordingView) ShowAdd(form *popup.Form) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Forms = append(v.Forms, form)
}

// ShowSuccess implements popup.View.
func (v *RecordingView) ShowSuccess(task service.Task, url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Successes = append(v.Successes, task)
	v.ViewURLs = append(v.ViewURLs, url)
}

// ShowError implements popup.View.
func (v *RecordingView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Errors = append(v.Errors, message)
}
