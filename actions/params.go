package actions

import (
	"strconv"
	"strings"

	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/internal/util"
)

// ParseSize parses a data size parameter, using def when raw is empty
func ParseSize(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewInvalidRequestError("size must be an integer, got %q", raw)
	}
	return size, nil
}

// ParseOptionalSize parses a data size parameter; empty means no size filter
func ParseOptionalSize(raw string) (*int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	size, err := ParseSize(raw, 0)
	if err != nil {
		return nil, err
	}
	return util.Ptr(size), nil
}
