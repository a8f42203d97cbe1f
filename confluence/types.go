package confluence

import (
	"errors"
	"fmt"
)

const (
	PageType           = "page"
	RepresentationWiki = "wiki"
)

var ErrNoVersion = errors.New("page response carries no version number")

// Page is the subset of a content resource read before an update.
type Page struct {
	ID      string   `json:"id,omitempty"`
	Type    string   `json:"type,omitempty"`
	Title   string   `json:"title,omitempty"`
	Version *Version `json:"version,omitempty"`
}

type Version struct {
	Number int `json:"number"`
}

// PageUpdate is the PUT body for a content resource.
type PageUpdate struct {
	Version Version     `json:"version"`
	Title   string      `json:"title"`
	Type    string      `json:"type"`
	Body    BodyWrapper `json:"body"`
}

type BodyWrapper struct {
	Storage Storage `json:"storage"`
}

type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// StatusError is returned when the API answers with anything but 200.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}
