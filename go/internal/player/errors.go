package player

import "errors"

// ErrUnknownTeam is returned when a player references a missing or deleted team
var ErrUnknownTeam = errors.New("unknown team")
