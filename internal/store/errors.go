package store

import (
	"fmt"

	"github.com/serousbot/serousbot/internal/errors"
)

// errTagExists reports an occupied (guild, owner, name) slot.
func errTagExists(name string) *errors.Error {
	return errors.AlreadyExistsf("tag %q already exists", name)
}

// errTagNotFound reports an empty (guild, owner, name) slot.
func errTagNotFound(name string) *errors.Error {
	return errors.NotFoundf("tag %q could not be found", name)
}

// errCorrupt reports a tag document that cannot be trusted.
func errCorrupt(path string, cause error) *errors.Error {
	return errors.Wrapf(cause, errors.CodeCorrupt, "tag document %s is corrupt", path)
}

// errPersist reports a failed read or write of the tag document.
func errPersist(op, path string, cause error) *errors.Error {
	return errors.Wrap(cause, errors.CodePersistence, fmt.Sprintf("%s tag document %s", op, path))
}
