package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/whoyou/whoyou/internal/api/render"
	"github.com/whoyou/whoyou/internal/directory"
)

// maxFormatLength bounds how many characters after the final dot can be a
// format suffix. Entity names may legally contain dots, so only short,
// known suffixes are treated as format specifiers.
const maxFormatLength = 4

// splitFormat splits an optional trailing format suffix off a URL path
// segment. It reports whether a suffix was detected.
func splitFormat(segment string) (string, render.Format, bool) {
	idx := strings.LastIndex(segment, ".")
	if idx <= 0 || idx == len(segment)-1 {
		return segment, render.JSON, false
	}
	ext := segment[idx+1:]
	if len(ext) > maxFormatLength {
		return segment, render.JSON, false
	}
	format, known := render.ParseFormat(ext)
	if !known {
		return segment, render.JSON, false
	}
	return segment[:idx], format, true
}

// resolveAccount resolves a path segment to an account using two-phase
// name-versus-format disambiguation: the segment with any detected format
// suffix stripped is tried first, so suffixed requests for dotted names
// keep working; only if that fails is the whole segment tried as a name,
// in which case the detected format is discarded.
func resolveAccount(ctx context.Context, d *directory.Directory, segment string) (*directory.Account, render.Format, bool, error) {
	name, format, detected := splitFormat(segment)

	a, err := d.GetAccount(ctx, name)
	if err == nil {
		return a, format, detected, nil
	}
	if !errors.Is(err, directory.ErrAccountNotFound) {
		return nil, render.JSON, false, err
	}
	if detected {
		a, fullErr := d.GetAccount(ctx, segment)
		if fullErr == nil {
			return a, render.JSON, false, nil
		}
		if !errors.Is(fullErr, directory.ErrAccountNotFound) {
			return nil, render.JSON, false, fullErr
		}
	}
	return nil, format, detected, err
}

// resolveTeam is the team counterpart of resolveAccount.
func resolveTeam(ctx context.Context, d *directory.Directory, segment string) (*directory.Team, render.Format, bool, error) {
	name, format, detected := splitFormat(segment)

	t, err := d.GetTeam(ctx, name)
	if err == nil {
		return t, format, detected, nil
	}
	if !errors.Is(err, directory.ErrTeamNotFound) {
		return nil, render.JSON, false, err
	}
	if detected {
		t, fullErr := d.GetTeam(ctx, segment)
		if fullErr == nil {
			return t, render.JSON, false, nil
		}
		if !errors.Is(fullErr, directory.ErrTeamNotFound) {
			return nil, render.JSON, false, fullErr
		}
	}
	return nil, format, detected, err
}
