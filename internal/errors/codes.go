// Package errors classifies tcodefinder failures.
//
// Codes are ERR_XXX_DESCRIPTION, with the hundreds digit naming the
// category: 1XX configuration, 2XX catalog/cache storage, 3XX external
// services, 4XX validation. Most of these classify degradations that are
// logged and absorbed by a stage fallback; only storage failures that leave
// the whole request unanswerable propagate to callers.
package errors

// Category groups error codes by failure domain.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryStorage    Category = "STORAGE"
	CategoryUpstream   Category = "UPSTREAM"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity states how much of the pipeline a failure takes down.
type Severity string

const (
	// SeverityFatal leaves the request unanswerable.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails one operation; the request may still complete.
	SeverityError Severity = "ERROR"
	// SeverityWarning is a degradation absorbed by a stage fallback.
	SeverityWarning Severity = "WARNING"
)

const (
	// ErrCodeConfigInvalid: the configuration cannot be loaded or fails
	// validation.
	ErrCodeConfigInvalid = "ERR_102_CONFIG_INVALID"
	// ErrCodeProviderAbsent: an optional collaborator (model, web provider,
	// embedding service) is unconfigured; its stages stay disabled.
	ErrCodeProviderAbsent = "ERR_103_PROVIDER_ABSENT"

	// ErrCodeCatalogUnavailable: the catalog store cannot be opened or read.
	ErrCodeCatalogUnavailable = "ERR_201_CATALOG_UNAVAILABLE"
	// ErrCodeCacheUnavailable: a cache tier is unreachable; caching narrows
	// or stops, lookups proceed.
	ErrCodeCacheUnavailable = "ERR_202_CACHE_UNAVAILABLE"

	// ErrCodeStageTimeout: a bounded call overran its budget.
	ErrCodeStageTimeout = "ERR_301_STAGE_TIMEOUT"
	// ErrCodeUpstreamUnavailable: every catalog-backed strategy of a request
	// failed; the request cannot be serviced.
	ErrCodeUpstreamUnavailable = "ERR_302_UPSTREAM_UNAVAILABLE"
	// ErrCodeEmbeddingFailed: the embedding service answered but embedding
	// the catalog failed; semantic search stays disabled.
	ErrCodeEmbeddingFailed = "ERR_303_EMBEDDING_FAILED"

	// ErrCodeMalformedResponse: an external call returned structured output
	// that does not parse; handled like a timeout.
	ErrCodeMalformedResponse = "ERR_403_MALFORMED_RESPONSE"
)

func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryUpstream
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode: timeouts, malformed responses, absent collaborators and
// cache misses all degrade; unreachable catalogs and broken config do not.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeProviderAbsent, ErrCodeStageTimeout, ErrCodeMalformedResponse, ErrCodeCacheUnavailable:
		return SeverityWarning
	case ErrCodeCatalogUnavailable, ErrCodeConfigInvalid, ErrCodeUpstreamUnavailable:
		return SeverityFatal
	default:
		return SeverityError
	}
}

func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStageTimeout, ErrCodeUpstreamUnavailable, ErrCodeEmbeddingFailed, ErrCodeCacheUnavailable:
		return true
	}
	return false
}
