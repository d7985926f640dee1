package service

import (
	"net/http"

	commonerrors "github.com/hyttebook/backend/internal/common/errors"
)

var (
	ErrCabinNotFound = commonerrors.NewDomainError(
		"CABIN_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"cabin not found",
	)

	ErrForbidden = commonerrors.NewDomainError(
		"FORBIDDEN",
		commonerrors.CategoryForbidden,
		http.StatusForbidden,
		"you do not own this cabin",
	)

	ErrValidation = commonerrors.NewDomainError(
		"VALIDATION_FAILED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"validation failed",
	)

	ErrSlugConflict = commonerrors.NewDomainError(
		"SLUG_CONFLICT",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"could not allocate a unique slug",
	)

	ErrStorageUnavailable = commonerrors.ErrStorageUnavailable
)
