package odm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	uidPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// NewUID returns a fresh entity uid.
func NewUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// MakeRef joins a model name and uid into a ref.
func MakeRef(model, uid string) string {
	return model + ":" + uid
}

// ParseRef splits a ref into model name and uid.
func ParseRef(ref string) (model, uid string, err error) {
	model, uid, ok := strings.Cut(ref, ":")
	if !ok || !namePattern.MatchString(model) || !uidPattern.MatchString(uid) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return model, uid, nil
}
