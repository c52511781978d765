// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import "errors"

// Sentinel errors for complete extraction failures.
//
// These can be checked with errors.Is() to determine the category of
// failure without inspecting error messages. Partial failures are not
// errors here; they are reported in ParseResult.Errors while the
// successfully extracted prefix is still returned.
var (
	// ErrUnsupportedLanguage indicates that no parser is registered for the
	// requested language or file extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrFileTooLarge indicates the content exceeds the parser's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates the content cannot be processed at all,
	// typically because it is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrParseFailed indicates parsing failed completely and no useful
	// result could be produced.
	ErrParseFailed = errors.New("parse failed")
)
