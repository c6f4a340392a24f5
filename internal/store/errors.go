package store

import "errors"

var (
	ErrVisitNotFound          = errors.New("visit not found")
	ErrVisitExists            = errors.New("visit already exists")
	ErrStationNotFound        = errors.New("station not found")
	ErrJourneyNotStarted      = errors.New("journey not started")
	ErrJourneyStarted         = errors.New("journey already started")
	ErrJourneyCompleted       = errors.New("journey already completed")
	ErrInvalidPathwayPosition = errors.New("current station not in pathway")
)
