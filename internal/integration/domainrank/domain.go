package domainrank

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
	"github.com/tombee/soarbridge/internal/operation/transport"
	"github.com/tombee/soarbridge/internal/output"
)

// ErrURLNotFound is returned when the vendor has no record of a domain.
var ErrURLNotFound = errors.New("Url cannot be found")

// rankLookup is one vendor answer for a domain.
type rankLookup struct {
	name string
	rank interface{}
	raw  interface{}
}

// lookup asks the vendor for the rank of domain.
func (c *DomainRankIntegration) lookup(ctx context.Context, domain string) (*rankLookup, error) {
	query := c.BuildQueryString(map[string]interface{}{
		"Action":        "UrlInfo",
		"ResponseGroup": "Rank",
		"Url":           domain,
		"Output":        "json",
	}, nil)

	resp, err := c.ExecuteRequest(ctx, http.MethodGet, c.BaseURL()+query, nil, nil)
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := c.ParseJSONResponse(resp, &raw); err != nil {
		return nil, err
	}

	name, err := c.fields.String(ctx, FieldDataURL, raw)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldDataURL), err)
	}
	if name == "404" {
		return nil, ErrURLNotFound
	}
	if name == "" {
		name = domain
	}

	rank, _, err := c.fields.Value(ctx, FieldRank, raw)
	if err != nil {
		return nil, operation.NewTransformError(c.fields.Expression(FieldRank), err)
	}

	return &rankLookup{name: name, rank: rank, raw: raw}, nil
}

// domain ranks every domain in args["domain"] and returns one entry each.
func (c *DomainRankIntegration) domain(ctx context.Context, args map[string]interface{}) (*operation.Result, error) {
	domains := api.ArgToList(args["domain"])
	if len(domains) == 0 {
		return nil, &operation.Error{
			Type:        operation.ErrorTypeValidation,
			Message:     "domain doesn't exist",
			SuggestText: "pass --arg domain=<name>[,<name>...]",
		}
	}

	result := operation.NewResult()
	for _, d := range domains {
		found, err := c.lookup(ctx, d)
		if err != nil {
			return nil, c.vendorError(err)
		}
		entry, err := c.toEntry(found)
		if err != nil {
			return nil, err
		}
		result.Add(entry)
	}
	return result, nil
}

func (c *DomainRankIntegration) toEntry(found *rankLookup) (*operation.Entry, error) {
	var rankPtr *float64
	if found.rank != nil && found.rank != "" {
		n, ok := jq.ToFloat(found.rank)
		if !ok {
			return nil, operation.NewTransformError(c.fields.Expression(FieldRank),
				fmt.Errorf("rank %q is not a number", jq.Stringify(found.rank)))
		}
		rankPtr = &n
	}

	score, err := RankToScore(rankPtr, c.benign, c.threshold)
	if err != nil {
		return nil, err
	}

	rank := interface{}("Unknown")
	if rankPtr != nil {
		rank = found.rank
	}

	outputs := map[string]interface{}{
		"Name":      found.name,
		"Indicator": found.name,
		"Rank":      rank,
	}

	readable := output.MarkdownTable(
		"Alexa Rank for "+found.name,
		[]string{"Domain", "Alexa Rank", "Reputation"},
		[][]string{{found.name, jq.Stringify(rank), score.Verdict()}},
	)

	return &operation.Entry{
		ReadableOutput:  readable,
		OutputsPrefix:   OutputsPrefix,
		OutputsKeyField: "Name",
		Outputs:         outputs,
		RawResponse:     found.raw,
		Indicator: &operation.Indicator{
			Indicator:   found.name,
			Type:        operation.IndicatorDomain,
			Vendor:      c.vendor,
			Score:       score,
			Reliability: c.reliability,
		},
	}, nil
}

// testModule ranks a well-known domain to check the API key.
func (c *DomainRankIntegration) testModule(ctx context.Context) (*operation.Result, error) {
	if err := c.CheckIdentity(ctx); err != nil {
		return nil, err
	}

	if _, err := c.lookup(ctx, testDomain); err != nil {
		if te, ok := transport.AsTransportError(err); ok && te.StatusCode == http.StatusForbidden {
			return nil, &operation.Error{
				Type:        operation.ErrorTypeAuth,
				StatusCode:  te.StatusCode,
				Message:     "Authorization Error: make sure API Key is correctly set",
				RequestID:   te.RequestID,
				Cause:       err,
				SuggestText: "Check the credentials configured for the instance",
			}
		}
		return nil, c.vendorError(err)
	}
	return operation.TextResult("ok"), nil
}

// vendorError converts transport failures into operation errors and leaves
// everything else untouched.
func (c *DomainRankIntegration) vendorError(err error) error {
	if _, ok := transport.AsTransportError(err); ok {
		return operation.FromTransportError(err)
	}
	return err
}
