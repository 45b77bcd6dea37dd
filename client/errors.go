package client

import "errors"

// ErrNotFound is returned when the server answers 404 for a referenced entity.
var ErrNotFound = errors.New("not found")

// ErrTurnInFlight is returned by Submit while a previous turn is unresolved.
var ErrTurnInFlight = errors.New("a chat turn is already in flight")

// ErrNoActiveSession is returned by Submit before a session was activated.
var ErrNoActiveSession = errors.New("no active session")

// ErrEmptyMessage is returned by Submit for blank input.
var ErrEmptyMessage = errors.New("message is empty")
