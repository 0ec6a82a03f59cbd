package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	ErrBadFrontMatter = errors.New("bad front matter")
	ErrIncludeCycle   = errors.New("include cycle")
	ErrUnknownRef     = errors.New("unknown reference")
	ErrBadSitemap     = errors.New("bad sitemap")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

func IsUnknownRef(err error) bool {
	return errors.Is(err, ErrUnknownRef)
}
