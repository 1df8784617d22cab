package domain

import "errors"

// ErrNoSuchTerm is returned when an interest term id does not exist in the
// catalog.
var ErrNoSuchTerm = errors.New("no such interest term")

// DefaultLanguage is the language every interest is guaranteed to carry a
// term for.
const DefaultLanguage = "en"

// Interest is a language-independent topic users can subscribe to.
type Interest struct {
	ID int64 `json:"id"`
}

// InterestTerm is one localized name of an interest. A single interest has
// one term per language it is translated into.
type InterestTerm struct {
	ID         int64  `json:"id"`
	InterestID int64  `json:"interestId"`
	Term       string `json:"term"`
	Language   string `json:"language"`
}
