package client

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strings"
)

// aggregatedResponse is the top-level document returned by the upstream
// aggregated price endpoint.
type aggregatedResponse struct {
	Results []aggregatedResult `json:"results"`
}

// aggregatedResult carries the nested quality-tier and geographic-scope
// price aggregates for one item. Results may arrive in any order; matching
// back to requested IDs goes through ItemID, never array position.
type aggregatedResult struct {
	ItemID int64            `json:"itemId"`
	NQ     qualityAggregate `json:"nq"`
	HQ     qualityAggregate `json:"hq"`
}

type qualityAggregate struct {
	MinListing scopedListing `json:"minListing"`
}

type scopedListing struct {
	World  *listingPrice `json:"world"`
	DC     *listingPrice `json:"dc"`
	Region *listingPrice `json:"region"`
}

type listingPrice struct {
	Price float64 `json:"price"`
}

// resolvePrice applies the fixed extraction priority: data-center, then
// world, then region, first on the normal-quality aggregate and then on the
// high-quality one. The resolved figure is rounded to the nearest gil.
// ok=false means the item has no price anywhere, which is a legitimate
// answer, not an error.
func resolvePrice(result aggregatedResult) (int64, bool) {
	for _, quality := range []qualityAggregate{result.NQ, result.HQ} {
		listing := quality.MinListing
		for _, scoped := range []*listingPrice{listing.DC, listing.World, listing.Region} {
			if scoped != nil {
				return int64(math.Round(scoped.Price)), true
			}
		}
	}
	return 0, false
}

// decodeResponse validates and parses an upstream response body.
//
// Rejected, each with a distinct failure: non-2xx status, non-JSON
// content-type, declared or actual body size above maxBytes, unparsable body.
func decodeResponse(resp *http.Response, maxBytes int64) (*aggregatedResponse, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassHTTP,
			Message:    resp.Status,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !isJSONMediaType(mediaType) {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassMalformed,
			Message:    fmt.Sprintf("content-type %q", contentType),
			Err:        ErrBadContentType,
		}
	}

	if resp.ContentLength > maxBytes {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassMalformed,
			Message:    fmt.Sprintf("declared length %d > cap %d", resp.ContentLength, maxBytes),
			Err:        ErrResponseTooLarge,
		}
	}

	// Read one byte past the cap so an unbounded body without a declared
	// length is still caught.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}
	if int64(len(body)) > maxBytes {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassMalformed,
			Message:    fmt.Sprintf("body exceeds cap %d", maxBytes),
			Err:        ErrResponseTooLarge,
		}
	}

	var parsed aggregatedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassMalformed,
			Message:    "parse response body",
			Err:        err,
		}
	}

	return &parsed, nil
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
