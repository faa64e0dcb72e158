package core

import (
	"errors"
)

var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrUnknownResourceType = errors.New("unknown resource type")
	ErrUnsupportedMetaType = errors.New("resource type has no metadata loader")
	ErrDecodeFailed        = errors.New("failed to decode resource")
	ErrPassKeyMismatch     = errors.New("package pass key mismatch")
	ErrCorruptPackage      = errors.New("corrupt package")
	ErrLevelNotFound       = errors.New("level not found")
	ErrCorruptLevel        = errors.New("corrupt level")
	ErrTaskCancelled       = errors.New("task cancelled")
	ErrUnknown             = errors.New("unknown")
)
