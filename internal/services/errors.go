package services

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("not found")
	ErrNotFoundOrNotOwned = errors.New("not found or not owned")
	ErrAlreadyClaimed     = errors.New("item already claimed")
	ErrUpstreamEmbedding  = errors.New("embedding service failed")
	ErrUpstreamStorage    = errors.New("image storage failed")
	ErrAIProvider         = errors.New("all reasoning providers failed")
	ErrPersistence        = errors.New("persistence failed")
)
