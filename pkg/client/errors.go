package client

import "errors"

var (
	ErrTransitionBlocked  = errors.New("client: move to 'inprogress' first, a todo task cannot go straight to done")
	ErrAttachmentTooLarge = errors.New("client: attachment exceeds the 2MB limit")
	ErrUnknownTask        = errors.New("client: task not in the last snapshot")
	ErrClosed             = errors.New("client: connection closed")
)
